// Package admin holds the back-office services: job lifecycle, application
// triage and the dashboard counters.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobboard/internal/model"
)

// JobService creates and edits job postings.
type JobService struct {
	store  model.JobStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewJobService creates a JobService.
func NewJobService(store model.JobStore, logger *slog.Logger) *JobService {
	return &JobService{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// List returns every job, active or not, newest first.
func (s *JobService) List(ctx context.Context) ([]model.Job, error) {
	jobs, err := s.store.ListJobs(ctx, false)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list jobs", Err: err}
	}
	return jobs, nil
}

// Get returns one job.
func (s *JobService) Get(ctx context.Context, id string) (model.Job, error) {
	return wrapJob(s.store.GetJob(ctx, id))
}

// Create validates the fields and posts a new, active job dated now.
func (s *JobService) Create(ctx context.Context, fields model.JobFields) (model.Job, error) {
	fields = normalizeFields(fields)
	if err := checkFields(fields); err != nil {
		return model.Job{}, err
	}

	job, err := wrapJob(s.store.CreateJob(ctx, model.Job{
		ID:              s.newID(),
		Title:           fields.Title,
		Department:      fields.Department,
		Location:        fields.Location,
		Description:     fields.Description,
		PostedAt:        s.now().UTC(),
		Active:          true,
		MaxApplications: fields.MaxApplications,
	}))
	if err != nil {
		return model.Job{}, err
	}
	s.logger.Info("job created", "job_id", job.ID, "title", job.Title)
	return job, nil
}

// Update replaces the editable fields. id, posting date and active flag are kept.
func (s *JobService) Update(ctx context.Context, id string, fields model.JobFields) (model.Job, error) {
	fields = normalizeFields(fields)
	if err := checkFields(fields); err != nil {
		return model.Job{}, err
	}
	job, err := wrapJob(s.store.UpdateJob(ctx, id, fields))
	if err != nil {
		return model.Job{}, err
	}
	s.logger.Info("job updated", "job_id", id)
	return job, nil
}

// Toggle flips the job's active flag. Applications are untouched.
func (s *JobService) Toggle(ctx context.Context, id string) (model.Job, error) {
	job, err := wrapJob(s.store.GetJob(ctx, id))
	if err != nil {
		return model.Job{}, err
	}
	job, err = wrapJob(s.store.SetJobActive(ctx, id, !job.Active))
	if err != nil {
		return model.Job{}, err
	}
	s.logger.Info("job toggled", "job_id", id, "active", job.Active)
	return job, nil
}

func wrapJob(job model.Job, err error) (model.Job, error) {
	if err == nil {
		return job, nil
	}
	if errors.Is(err, model.ErrJobNotFound) {
		return model.Job{}, model.ErrJobNotFound
	}
	return model.Job{}, &model.PersistenceError{Op: "job", Err: err}
}
