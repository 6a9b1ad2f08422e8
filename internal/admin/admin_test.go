package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func newJobService(st model.JobStore) *JobService {
	s := NewJobService(st, discardLogger())
	s.now = func() time.Time { return now }
	s.newID = func() string { return "job-1" }
	return s
}

func fields() model.JobFields {
	return model.JobFields{
		Title:       "  Backend Engineer ",
		Department:  "Engineering",
		Location:    "Remote",
		Description: "Go services",
	}
}

func TestJobService_Create(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newJobService(st)

	job, err := svc.Create(context.Background(), fields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID != "job-1" || job.Title != "Backend Engineer" || !job.Active {
		t.Errorf("job = %+v", job)
	}
	if job.MaxApplications != model.DefaultMaxApplications {
		t.Errorf("MaxApplications = %d, want default %d", job.MaxApplications, model.DefaultMaxApplications)
	}
	if !job.PostedAt.Equal(now) {
		t.Errorf("PostedAt = %v, want %v", job.PostedAt, now)
	}
}

func TestJobService_CreateValidation(t *testing.T) {
	svc := newJobService(store.NewMemoryStore())

	f := fields()
	f.Title = "   "
	f.Location = ""
	f.MaxApplications = -2
	_, err := svc.Create(context.Background(), f)

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	want := []model.FieldError{
		{Field: "title", Message: "is required"},
		{Field: "location", Message: "is required"},
		{Field: "max_applications", Message: "must be at least 1"},
	}
	if !reflect.DeepEqual(verr.Fields, want) {
		t.Errorf("fields = %+v, want %+v", verr.Fields, want)
	}
}

func TestJobService_UpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	svc := newJobService(store.NewMemoryStore())
	job, err := svc.Create(ctx, fields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Toggle(ctx, job.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	f := fields()
	f.Title = "Staff Engineer"
	f.MaxApplications = 10
	updated, err := svc.Update(ctx, job.ID, f)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Staff Engineer" || updated.MaxApplications != 10 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Active || !updated.PostedAt.Equal(job.PostedAt) || updated.ID != job.ID {
		t.Errorf("identity changed: %+v", updated)
	}

	if _, err := svc.Update(ctx, "missing", f); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("missing err = %v, want ErrJobNotFound", err)
	}
}

func TestJobService_ToggleTwice(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newJobService(st)
	job, err := svc.Create(ctx, fields())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	app := model.Application{ID: "a1", JobID: job.ID, Email: "a@b.com", Status: model.StatusReviewed, SubmittedAt: now}
	if _, err := st.InsertApplication(ctx, app, model.InsertGuard{}); err != nil {
		t.Fatalf("InsertApplication: %v", err)
	}

	first, err := svc.Toggle(ctx, job.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if first.Active {
		t.Error("first toggle should deactivate")
	}
	second, err := svc.Toggle(ctx, job.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if second.Active != job.Active {
		t.Errorf("Active = %v, want original %v", second.Active, job.Active)
	}

	views, err := st.ListApplications(ctx, model.ApplicationFilter{JobID: job.ID})
	if err != nil || len(views) != 1 || views[0].Status != model.StatusReviewed {
		t.Errorf("applications changed: %+v, %v", views, err)
	}

	if _, err := svc.Toggle(ctx, "missing"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func seed(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	jobs := []model.Job{
		{ID: "j1", Title: "Frontend", Department: "Engineering", Location: "Remote", Description: "d", PostedAt: now, Active: true, MaxApplications: 5},
		{ID: "j2", Title: "Designer", Department: "Design", Location: "Remote", Description: "d", PostedAt: now, Active: false, MaxApplications: 5},
	}
	for _, j := range jobs {
		if _, err := st.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}
	apps := []model.Application{
		{ID: "a1", JobID: "j1", Email: "x@y.com", Status: model.StatusPending, SubmittedAt: now.Add(-2 * time.Hour)},
		{ID: "a2", JobID: "j1", Email: "z@y.com", Status: model.StatusShortlisted, SubmittedAt: now.Add(-time.Hour)},
		{ID: "a3", JobID: "j2", Email: "x@y.com", Status: model.StatusPending, SubmittedAt: now},
	}
	for _, a := range apps {
		if _, err := st.InsertApplication(ctx, a, model.InsertGuard{}); err != nil {
			t.Fatalf("InsertApplication: %v", err)
		}
	}
	return st
}

func TestTriageService(t *testing.T) {
	ctx := context.Background()
	st := seed(t)
	svc := NewTriageService(st, discardLogger())

	all, err := svc.List(ctx, filter.ApplicationFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, v := range all {
		ids = append(ids, v.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a3", "a2", "a1"}) {
		t.Errorf("List order = %v, want newest first", ids)
	}
	if all[0].JobTitle != "Designer" {
		t.Errorf("JobTitle = %q", all[0].JobTitle)
	}

	pending, err := svc.List(ctx, filter.ApplicationFilter{Status: model.StatusPending, JobID: "j1"})
	if err != nil || len(pending) != 1 || pending[0].ID != "a1" {
		t.Errorf("filtered = %+v, %v", pending, err)
	}

	app, err := svc.SetStatus(ctx, "a2", "rejected")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if app.Status != model.StatusRejected {
		t.Errorf("Status = %q", app.Status)
	}
	// back to pending is allowed
	if _, err := svc.SetStatus(ctx, "a2", "pending"); err != nil {
		t.Errorf("SetStatus(pending): %v", err)
	}

	if _, err := svc.SetStatus(ctx, "a2", "archived"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.SetStatus(ctx, "nope", "hired"); !errors.Is(err, model.ErrApplicationNotFound) {
		t.Errorf("err = %v, want ErrApplicationNotFound", err)
	}
}

func TestComputeStats(t *testing.T) {
	st := seed(t)
	got, err := ComputeStats(context.Background(), st)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	want := Stats{TotalJobs: 2, ActiveJobs: 1, TotalApplications: 3, PendingApplications: 2}
	if got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}
