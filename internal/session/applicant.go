package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/amishk599/jobboard/internal/model"
)

// Applicant tracks the jobs one applicant has applied to. It is built from
// persisted applications and updated by intake after each accepted submission.
type Applicant struct {
	Email string

	mu      sync.RWMutex
	applied map[string]bool
}

// NewApplicant returns an empty session for email (normalized to lower case).
func NewApplicant(email string) *Applicant {
	return &Applicant{
		Email:   strings.ToLower(strings.TrimSpace(email)),
		applied: make(map[string]bool),
	}
}

// LoadApplicant builds the applicant's session from the store.
func LoadApplicant(ctx context.Context, store model.ApplicationStore, email string) (*Applicant, error) {
	a := NewApplicant(email)
	if a.Email == "" {
		return a, nil
	}
	apps, err := store.ListApplications(ctx, model.ApplicationFilter{Email: a.Email})
	if err != nil {
		return nil, fmt.Errorf("loading applications for %s: %w", a.Email, err)
	}
	for _, app := range apps {
		a.applied[app.JobID] = true
	}
	return a, nil
}

// HasApplied reports whether the applicant has applied to jobID.
func (a *Applicant) HasApplied(jobID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.applied[jobID]
}

// MarkApplied records an accepted application for jobID.
func (a *Applicant) MarkApplied(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied[jobID] = true
}

// AppliedJobs returns the applied job ids, sorted.
func (a *Applicant) AppliedJobs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.applied))
	for id := range a.applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
