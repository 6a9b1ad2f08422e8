package model

import (
	"context"
	"time"
)

// DefaultMaxApplications is the capacity given to a job when none is set.
const DefaultMaxApplications = 5

// Job is a posting on the board.
type Job struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Department       string    `json:"department"`
	Location         string    `json:"location"`
	Description      string    `json:"description"`
	PostedAt         time.Time `json:"posting_date"`
	Active           bool      `json:"is_active"`
	MaxApplications  int       `json:"max_applications"`
	ApplicationCount int       `json:"application_count"` // derived, never written
}

// Full reports whether the job has reached its application capacity.
func (j Job) Full() bool {
	return j.ApplicationCount >= j.Capacity()
}

// Capacity returns MaxApplications, falling back to the default for unset values.
func (j Job) Capacity() int {
	if j.MaxApplications <= 0 {
		return DefaultMaxApplications
	}
	return j.MaxApplications
}

// JobFields are the admin-editable fields of a job.
type JobFields struct {
	Title           string `json:"title" validate:"required"`
	Department      string `json:"department" validate:"required"`
	Location        string `json:"location" validate:"required"`
	Description     string `json:"description" validate:"required"`
	MaxApplications int    `json:"max_applications" validate:"min=1"`
}

// JobStore is the jobs side of the persistence gateway.
type JobStore interface {
	ListJobs(ctx context.Context, activeOnly bool) ([]Job, error)
	GetJob(ctx context.Context, id string) (Job, error)
	CreateJob(ctx context.Context, job Job) (Job, error)
	UpdateJob(ctx context.Context, id string, fields JobFields) (Job, error)
	SetJobActive(ctx context.Context, id string, active bool) (Job, error)
}

// Store is the full persistence gateway: both tables plus lifecycle.
type Store interface {
	JobStore
	ApplicationStore
	Close() error
}
