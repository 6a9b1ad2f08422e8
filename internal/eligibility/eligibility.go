// Package eligibility decides whether a submission may be accepted given the
// applicant's existing applications. Everything here is pure: no I/O, no clock.
package eligibility

import (
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// DefaultDailyLimit is the number of applications one email may submit per window.
const DefaultDailyLimit = 5

// Policy configures the checks run by Evaluate.
type Policy struct {
	DailyLimit int
	// EnforceCapacity adds a server-side check that the job is not full.
	// When false, capacity stays advisory.
	EnforceCapacity bool
}

// Candidate is the submission being evaluated.
type Candidate struct {
	JobID string
	Email string // normalized
	// Job is only consulted when the policy enforces capacity.
	Job model.Job
}

// Window returns the rate window containing now: the UTC calendar day,
// start inclusive and end exclusive.
func Window(now time.Time) (start, end time.Time) {
	u := now.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// CountInWindow counts applications submitted inside the window containing now.
func CountInWindow(history []model.Application, now time.Time) int {
	start, end := Window(now)
	n := 0
	for _, a := range history {
		t := a.SubmittedAt.UTC()
		if !t.Before(start) && t.Before(end) {
			n++
		}
	}
	return n
}

// Evaluate runs the checks in order and returns the first failure, or nil when
// the candidate is eligible. history holds the applicant's existing applications.
func Evaluate(p Policy, c Candidate, history []model.Application, now time.Time) error {
	for _, a := range history {
		if a.JobID == c.JobID && a.Email == c.Email {
			return model.ErrDuplicateApplication
		}
	}

	if CountInWindow(history, now) >= p.limit() {
		return model.ErrRateLimitExceeded
	}

	if p.EnforceCapacity && c.Job.Full() {
		return model.ErrJobFull
	}

	return nil
}

// Guard translates the policy into the limits a store enforces on insert.
func (p Policy) Guard(job model.Job, now time.Time) model.InsertGuard {
	start, end := Window(now)
	g := model.InsertGuard{
		DailyLimit:  p.limit(),
		WindowStart: start,
		WindowEnd:   end,
	}
	if p.EnforceCapacity {
		g.MaxApplications = job.Capacity()
	}
	return g
}

func (p Policy) limit() int {
	if p.DailyLimit <= 0 {
		return DefaultDailyLimit
	}
	return p.DailyLimit
}
