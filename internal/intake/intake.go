// Package intake runs one application submission end to end: validation,
// eligibility, persistence, the applicant's applied-jobs session and the
// new-application notification.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobboard/internal/eligibility"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/session"
)

// Gateway is the persistence the workflow needs.
type Gateway interface {
	model.JobStore
	model.ApplicationStore
}

// Options configures a Service.
type Options struct {
	Policy         eligibility.Policy
	MaxResumeBytes int64
}

// Service accepts applications.
type Service struct {
	store    Gateway
	notifier model.Notifier
	opts     Options
	logger   *slog.Logger

	now   func() time.Time
	newID func() string

	wg sync.WaitGroup
}

// NewService creates a Service. notifier may be nil to disable notifications.
func NewService(store Gateway, notifier model.Notifier, opts Options, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submit validates form and, when the applicant is eligible, persists a new
// pending application for jobID. On success the job is added to applicant's
// applied set (when applicant is non-nil and belongs to the same email).
//
// Errors: *model.ValidationError, model.ErrJobNotFound, model.ErrJobClosed,
// model.ErrDuplicateApplication, model.ErrRateLimitExceeded, model.ErrJobFull
// or *model.PersistenceError. Nothing is retried.
func (s *Service) Submit(ctx context.Context, jobID string, form Form, applicant *session.Applicant) (model.Application, error) {
	form, err := Validate(form, s.opts.MaxResumeBytes)
	if err != nil {
		s.logger.Warn("application rejected", "job_id", jobID, "reason", "validation", "error", err)
		return model.Application{}, err
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return model.Application{}, s.reject(jobID, form.Email, "lookup job", err)
	}
	if !job.Active {
		return model.Application{}, s.reject(jobID, form.Email, "", model.ErrJobClosed)
	}

	views, err := s.store.ListApplications(ctx, model.ApplicationFilter{Email: form.Email})
	if err != nil {
		return model.Application{}, s.reject(jobID, form.Email, "load history", err)
	}
	history := make([]model.Application, len(views))
	for i, v := range views {
		history[i] = v.Application
	}

	now := s.now().UTC()
	candidate := eligibility.Candidate{JobID: jobID, Email: form.Email, Job: job}
	if err := eligibility.Evaluate(s.opts.Policy, candidate, history, now); err != nil {
		return model.Application{}, s.reject(jobID, form.Email, "", err)
	}

	app := model.Application{
		ID:          s.newID(),
		JobID:       jobID,
		FullName:    form.FullName,
		Email:       form.Email,
		Phone:       form.Phone,
		ResumeRef:   form.Resume.Name,
		ResumeType:  form.Resume.ContentType,
		ResumeSize:  form.Resume.Size,
		Status:      model.StatusPending,
		SubmittedAt: now,
	}
	app, err = s.store.InsertApplication(ctx, app, s.opts.Policy.Guard(job, now))
	if err != nil {
		return model.Application{}, s.reject(jobID, form.Email, "insert application", err)
	}

	if applicant != nil && applicant.Email == app.Email {
		applicant.MarkApplied(jobID)
	}

	s.logger.Info("application accepted",
		"application_id", app.ID,
		"job_id", jobID,
		"email", app.Email,
	)

	job.ApplicationCount++
	s.notify(ctx, model.Notification{Job: job, Application: app})
	return app, nil
}

// Wait blocks until in-flight notifications have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// notify delivers in the background so a slow webhook never delays or fails
// the submission.
func (s *Service) notify(ctx context.Context, n model.Notification) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Error("notification failed",
				"application_id", n.Application.ID,
				"job_id", n.Job.ID,
				"error", err,
			)
		}
	}()
}

// reject logs the rejection and returns the error the caller should see:
// domain sentinels pass through, anything else becomes a PersistenceError.
func (s *Service) reject(jobID, email, op string, err error) error {
	if !isDomainError(err) {
		err = &model.PersistenceError{Op: op, Err: err}
		s.logger.Error("application failed", "job_id", jobID, "email", email, "error", err)
		return err
	}
	s.logger.Warn("application rejected", "job_id", jobID, "email", email, "reason", err.Error())
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{
		model.ErrJobNotFound,
		model.ErrJobClosed,
		model.ErrJobFull,
		model.ErrDuplicateApplication,
		model.ErrRateLimitExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var perr *model.PersistenceError
	return errors.As(err, &perr)
}

// AppliedJobs returns the ids of jobs email has applied to.
func (s *Service) AppliedJobs(ctx context.Context, email string) ([]string, error) {
	a, err := session.LoadApplicant(ctx, s.store, email)
	if err != nil {
		return nil, &model.PersistenceError{Op: "load applicant", Err: err}
	}
	return a.AppliedJobs(), nil
}

// Applicant loads the applicant session for email.
func (s *Service) Applicant(ctx context.Context, email string) (*session.Applicant, error) {
	a, err := session.LoadApplicant(ctx, s.store, email)
	if err != nil {
		return nil, fmt.Errorf("loading applicant: %w", err)
	}
	return a, nil
}
