package store

import (
	"context"
	"sort"
	"sync"

	"github.com/amishk599/jobboard/internal/model"
)

// MemoryStore keeps everything in process memory. It enforces the same
// uniqueness and guard rules as the SQL stores and is used for demo runs
// and tests.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]model.Job
	apps []model.Application
}

var _ model.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]model.Job)}
}

func (s *MemoryStore) ListJobs(_ context.Context, activeOnly bool) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []model.Job
	for _, j := range s.jobs {
		if activeOnly && !j.Active {
			continue
		}
		jobs = append(jobs, s.withCount(j))
	}
	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].PostedAt.Equal(jobs[b].PostedAt) {
			return jobs[a].PostedAt.After(jobs[b].PostedAt)
		}
		return jobs[a].ID < jobs[b].ID
	})
	return jobs, nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, model.ErrJobNotFound
	}
	return s.withCount(j), nil
}

func (s *MemoryStore) CreateJob(_ context.Context, job model.Job) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.MaxApplications = job.Capacity()
	job.PostedAt = job.PostedAt.UTC()
	job.ApplicationCount = 0
	s.jobs[job.ID] = job
	return s.withCount(job), nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, id string, f model.JobFields) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, model.ErrJobNotFound
	}
	j.Title = f.Title
	j.Department = f.Department
	j.Location = f.Location
	j.Description = f.Description
	j.MaxApplications = f.MaxApplications
	s.jobs[id] = j
	return s.withCount(j), nil
}

func (s *MemoryStore) SetJobActive(_ context.Context, id string, active bool) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, model.ErrJobNotFound
	}
	j.Active = active
	s.jobs[id] = j
	return s.withCount(j), nil
}

func (s *MemoryStore) CountApplications(_ context.Context, f model.ApplicationFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count(f), nil
}

func (s *MemoryStore) FindApplication(_ context.Context, jobID, email string) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.apps {
		if a.JobID == jobID && a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListApplications(_ context.Context, f model.ApplicationFilter) ([]model.ApplicationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []model.ApplicationView
	for _, a := range s.apps {
		if !matches(a, f) {
			continue
		}
		j := s.jobs[a.JobID]
		views = append(views, model.ApplicationView{Application: a, JobTitle: j.Title, JobDepartment: j.Department})
	}
	sort.SliceStable(views, func(i, k int) bool {
		return views[i].SubmittedAt.After(views[k].SubmittedAt)
	})
	return views, nil
}

func (s *MemoryStore) InsertApplication(_ context.Context, app model.Application, g model.InsertGuard) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[app.JobID]; !ok {
		return model.Application{}, model.ErrJobNotFound
	}
	for _, a := range s.apps {
		if a.ID == app.ID || (a.JobID == app.JobID && a.Email == app.Email) {
			return model.Application{}, model.ErrDuplicateApplication
		}
	}
	if g.DailyLimit > 0 && s.count(model.ApplicationFilter{Email: app.Email, Since: g.WindowStart, Until: g.WindowEnd}) >= g.DailyLimit {
		return model.Application{}, model.ErrRateLimitExceeded
	}
	if g.MaxApplications > 0 && s.count(model.ApplicationFilter{JobID: app.JobID}) >= g.MaxApplications {
		return model.Application{}, model.ErrJobFull
	}

	app.SubmittedAt = app.SubmittedAt.UTC()
	s.apps = append(s.apps, app)
	return app, nil
}

func (s *MemoryStore) UpdateApplicationStatus(_ context.Context, id string, status model.Status) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.apps {
		if s.apps[i].ID == id {
			s.apps[i].Status = status
			return s.apps[i], nil
		}
	}
	return model.Application{}, model.ErrApplicationNotFound
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) withCount(j model.Job) model.Job {
	j.ApplicationCount = s.count(model.ApplicationFilter{JobID: j.ID})
	return j
}

func (s *MemoryStore) count(f model.ApplicationFilter) int {
	n := 0
	for _, a := range s.apps {
		if matches(a, f) {
			n++
		}
	}
	return n
}

func matches(a model.Application, f model.ApplicationFilter) bool {
	if f.JobID != "" && a.JobID != f.JobID {
		return false
	}
	if f.Email != "" && a.Email != f.Email {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && a.SubmittedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !a.SubmittedAt.Before(f.Until) {
		return false
	}
	return true
}
