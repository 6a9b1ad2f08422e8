package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/intake"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/session"
)

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// applicant loads the applied-jobs session for the optional ?email= parameter.
func (h *handler) applicant(c *gin.Context, email string) (*session.Applicant, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	return h.Intake.Applicant(c.Request.Context(), email)
}

func (h *handler) listJobs(c *gin.Context) {
	applicant, err := h.applicant(c, c.Query("email"))
	if err != nil {
		h.fail(c, &model.PersistenceError{Op: "load applicant", Err: err})
		return
	}
	f := filter.NewCatalogFilter(c.Query("search"), c.Query("department"), c.Query("location"))
	page, err := h.Catalog.List(c.Request.Context(), f, applicant)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handler) getJob(c *gin.Context) {
	l, err := h.Catalog.Get(c.Request.Context(), c.Param("id"), c.Query("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *handler) appliedJobs(c *gin.Context) {
	ids, err := h.Intake.AppliedJobs(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": strings.ToLower(strings.TrimSpace(c.Param("email"))), "job_ids": ids})
}

// submitApplication accepts multipart/form-data with full_name, email, phone
// and a resume file.
func (h *handler) submitApplication(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxResumeBytes+1<<20)
	if err := c.Request.ParseMultipartForm(h.MaxResumeBytes + 1<<20); err != nil {
		switch {
		case isTooLarge(err):
			respondError(c, intake.ResumeTooLarge(h.MaxResumeBytes))
		case errors.Is(err, http.ErrNotMultipart):
			writeError(c, http.StatusBadRequest, "invalid_form", "expected multipart/form-data", nil)
		default:
			writeError(c, http.StatusBadRequest, "invalid_form", "could not read form: "+err.Error(), nil)
		}
		return
	}

	form := intake.Form{
		FullName: c.PostForm("full_name"),
		Email:    c.PostForm("email"),
		Phone:    c.PostForm("phone"),
	}

	fh, err := c.FormFile("resume")
	switch {
	case err == nil:
		resume, err := inspectResume(fh)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_form", "could not read resume: "+err.Error(), nil)
			return
		}
		form.Resume = resume
	case errors.Is(err, http.ErrMissingFile):
		// reported by validation
	default:
		writeError(c, http.StatusBadRequest, "invalid_form", "could not read resume: "+err.Error(), nil)
		return
	}

	applicant, err := h.applicant(c, form.Email)
	if err != nil {
		h.fail(c, &model.PersistenceError{Op: "load applicant", Err: err})
		return
	}

	app, err := h.Intake.Submit(c.Request.Context(), c.Param("id"), form, applicant)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"application": app}
	if applicant != nil {
		resp["applied_jobs"] = applicant.AppliedJobs()
	}
	c.JSON(http.StatusCreated, resp)
}

// inspectResume sniffs the uploaded file's type from its content.
func inspectResume(fh *multipart.FileHeader) (*intake.ResumeFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, err
	}

	return &intake.ResumeFile{
		Name:        fh.Filename,
		ContentType: resumeType(mt, fh.Header.Get("Content-Type")),
		Size:        fh.Size,
	}, nil
}

// resumeType picks the content type to validate. A DOCX the sniffer could
// only place as a zip, or a DOC it could only place as OLE storage, takes the
// declared type when it names that format. Anything else keeps the sniffed
// type.
func resumeType(sniffed *mimetype.MIME, declared string) string {
	base, _, _ := strings.Cut(declared, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	switch {
	case sniffed.Is("application/zip") && base == intake.MIMEDOCX:
		return intake.MIMEDOCX
	case sniffed.Is("application/x-ole-storage") && base == intake.MIMEDOC:
		return intake.MIMEDOC
	}
	return sniffed.String()
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge)
}
