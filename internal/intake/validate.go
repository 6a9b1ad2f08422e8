package intake

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/jobboard/internal/model"
)

// DefaultMaxResumeBytes is the largest resume accepted when no limit is configured.
const DefaultMaxResumeBytes int64 = 5 << 20

// MIME types accepted for resumes.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	phoneNoise   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// ResumeFile describes an uploaded resume. Only the reference is kept; the
// file body is never stored.
type ResumeFile struct {
	Name        string
	ContentType string
	Size        int64
}

// Form is the applicant-supplied submission.
type Form struct {
	FullName string
	Email    string
	Phone    string
	Resume   *ResumeFile
}

// Normalize trims every text field and lower-cases the email.
func (f Form) Normalize() Form {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	if f.Resume != nil {
		r := *f.Resume
		r.Name = strings.TrimSpace(r.Name)
		r.ContentType = baseMIME(r.ContentType)
		f.Resume = &r
	}
	return f
}

// Validate normalizes the form and checks every field, reporting all failures
// in form order. maxResumeBytes <= 0 uses DefaultMaxResumeBytes.
func Validate(f Form, maxResumeBytes int64) (Form, error) {
	if maxResumeBytes <= 0 {
		maxResumeBytes = DefaultMaxResumeBytes
	}
	f = f.Normalize()
	verr := &model.ValidationError{}

	if f.FullName == "" {
		verr.Add("full_name", "Full name is required")
	}

	switch {
	case f.Email == "":
		verr.Add("email", "Email is required")
	case !emailPattern.MatchString(f.Email):
		verr.Add("email", "Please enter a valid email address")
	}

	switch {
	case f.Phone == "":
		verr.Add("phone", "Phone number is required")
	case !ValidPhone(f.Phone):
		verr.Add("phone", "Please enter a valid phone number")
	}

	switch {
	case f.Resume == nil:
		verr.Add("resume", "Resume is required")
	case !AllowedResumeType(f.Resume.ContentType):
		verr.Add("resume", "Please upload a PDF or Word document")
	case f.Resume.Size > maxResumeBytes:
		verr.Add("resume", tooLargeMessage(maxResumeBytes))
	case f.Resume.Size <= 0:
		verr.Add("resume", "Resume file is empty")
	}

	return f, verr.OrNil()
}

// ValidPhone reports whether phone has an international dialing shape once
// spaces, hyphens and parentheses are removed.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phoneNoise.Replace(phone))
}

// AllowedResumeType reports whether contentType is PDF, DOC or DOCX.
// Parameters such as charset are ignored.
func AllowedResumeType(contentType string) bool {
	switch baseMIME(contentType) {
	case MIMEPDF, MIMEDOC, MIMEDOCX:
		return true
	}
	return false
}

func baseMIME(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// ResumeTooLarge is the validation failure for an upload over maxResumeBytes,
// for callers that reject the body before a Form can be built.
func ResumeTooLarge(maxResumeBytes int64) error {
	if maxResumeBytes <= 0 {
		maxResumeBytes = DefaultMaxResumeBytes
	}
	verr := &model.ValidationError{}
	verr.Add("resume", tooLargeMessage(maxResumeBytes))
	return verr
}

func tooLargeMessage(maxResumeBytes int64) string {
	return "Please upload a file smaller than " + humanBytes(maxResumeBytes)
}

func humanBytes(n int64) string {
	const mib = 1 << 20
	if n%mib == 0 {
		return strconv.FormatInt(n/mib, 10) + "MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
