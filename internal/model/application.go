package model

import (
	"context"
	"fmt"
	"time"
)

// Status is the review state of an application.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusRejected    Status = "rejected"
	StatusHired       Status = "hired"
)

// Statuses lists every status in review order.
func Statuses() []Status {
	return []Status{StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusHired}
}

// ParseStatus converts s into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Application is one applicant's submission for one job.
type Application struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ResumeRef   string    `json:"resume_ref"`
	ResumeType  string    `json:"resume_type"`
	ResumeSize  int64     `json:"resume_size"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"applied_at"`
}

// ApplicationView is an application joined with the job it targets.
type ApplicationView struct {
	Application
	JobTitle      string `json:"job_title"`
	JobDepartment string `json:"job_department"`
}

// ApplicationFilter narrows counts and listings. Zero fields do not restrict.
type ApplicationFilter struct {
	JobID  string
	Email  string
	Status Status
	Since  time.Time // inclusive
	Until  time.Time // exclusive
}

// InsertGuard carries the limits a store enforces atomically with an insert.
// Zero values disable the corresponding check.
type InsertGuard struct {
	DailyLimit      int
	WindowStart     time.Time
	WindowEnd       time.Time
	MaxApplications int
}

// ApplicationStore is the applications side of the persistence gateway.
type ApplicationStore interface {
	CountApplications(ctx context.Context, filter ApplicationFilter) (int, error)
	FindApplication(ctx context.Context, jobID, email string) (*Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]ApplicationView, error)
	InsertApplication(ctx context.Context, app Application, guard InsertGuard) (Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status Status) (Application, error)
}

// Notification announces an accepted application.
type Notification struct {
	Job         Job
	Application Application
}

// Notifier delivers notifications about new applications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
