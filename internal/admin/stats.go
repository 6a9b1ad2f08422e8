package admin

import (
	"context"

	"github.com/amishk599/jobboard/internal/model"
)

// Stats are the dashboard counters.
type Stats struct {
	TotalJobs           int `json:"total_jobs"`
	ActiveJobs          int `json:"active_jobs"`
	TotalApplications   int `json:"total_applications"`
	PendingApplications int `json:"pending_applications"`
}

// Gateway is the read access Stats needs.
type Gateway interface {
	ListJobs(ctx context.Context, activeOnly bool) ([]model.Job, error)
	CountApplications(ctx context.Context, filter model.ApplicationFilter) (int, error)
}

// ComputeStats gathers the dashboard counters.
func ComputeStats(ctx context.Context, g Gateway) (Stats, error) {
	jobs, err := g.ListJobs(ctx, false)
	if err != nil {
		return Stats{}, &model.PersistenceError{Op: "stats jobs", Err: err}
	}
	var st Stats
	st.TotalJobs = len(jobs)
	for _, j := range jobs {
		if j.Active {
			st.ActiveJobs++
		}
	}
	if st.TotalApplications, err = g.CountApplications(ctx, model.ApplicationFilter{}); err != nil {
		return Stats{}, &model.PersistenceError{Op: "stats applications", Err: err}
	}
	if st.PendingApplications, err = g.CountApplications(ctx, model.ApplicationFilter{Status: model.StatusPending}); err != nil {
		return Stats{}, &model.PersistenceError{Op: "stats pending", Err: err}
	}
	return st, nil
}
