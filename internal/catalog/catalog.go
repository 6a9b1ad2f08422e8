// Package catalog serves the public job listing.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/session"
)

// Listing is one job as shown to applicants.
type Listing struct {
	model.Job
	Full    bool `json:"full"`
	Applied bool `json:"applied"`
}

// Page is the filtered listing plus the dropdown values, which are computed
// over every active job so that filtering never hides an option.
type Page struct {
	Jobs        []Listing `json:"jobs"`
	Departments []string  `json:"departments"`
	Locations   []string  `json:"locations"`
}

// Gateway is the part of the store the catalog reads.
type Gateway interface {
	model.JobStore
	FindApplication(ctx context.Context, jobID, email string) (*model.Application, error)
}

// Service reads active jobs.
type Service struct {
	store Gateway
}

// NewService creates a Service.
func NewService(store Gateway) *Service {
	return &Service{store: store}
}

// List returns the active jobs passing f. applicant may be nil.
func (s *Service) List(ctx context.Context, f filter.CatalogFilter, applicant *session.Applicant) (Page, error) {
	jobs, err := s.store.ListJobs(ctx, true)
	if err != nil {
		return Page{}, &model.PersistenceError{Op: "list jobs", Err: err}
	}
	page := Page{
		Jobs:        []Listing{},
		Departments: filter.Departments(jobs),
		Locations:   filter.Locations(jobs),
	}
	for _, j := range f.Apply(jobs) {
		page.Jobs = append(page.Jobs, listing(j, applicant))
	}
	return page, nil
}

// Get returns one active job. Inactive jobs are reported as not found. When
// email is set, Applied reports whether that applicant has applied to it.
func (s *Service) Get(ctx context.Context, id, email string) (Listing, error) {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return Listing{}, model.ErrJobNotFound
		}
		return Listing{}, &model.PersistenceError{Op: "get job", Err: err}
	}
	if !j.Active {
		return Listing{}, model.ErrJobNotFound
	}

	l := listing(j, nil)
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		app, err := s.store.FindApplication(ctx, j.ID, email)
		if err != nil {
			return Listing{}, &model.PersistenceError{Op: "find application", Err: err}
		}
		l.Applied = app != nil
	}
	return l, nil
}

func listing(j model.Job, applicant *session.Applicant) Listing {
	l := Listing{Job: j, Full: j.Full()}
	if applicant != nil {
		l.Applied = applicant.HasApplied(j.ID)
	}
	return l
}
