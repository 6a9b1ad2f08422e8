package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/eligibility"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/session"
	"github.com/amishk599/jobboard/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var now = time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// failingInsert wraps a gateway and fails every insert.
type failingInsert struct {
	Gateway
}

func (failingInsert) InsertApplication(context.Context, model.Application, model.InsertGuard) (model.Application, error) {
	return model.Application{}, errors.New("connection reset")
}

func newService(t *testing.T, opts Options, jobs ...model.Job) (*Service, *store.MemoryStore, *fakeNotifier) {
	t.Helper()
	st := store.NewMemoryStore()
	for _, j := range jobs {
		if _, err := st.CreateJob(context.Background(), j); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}
	n := &fakeNotifier{}
	svc := NewService(st, n, opts, discardLogger())
	svc.now = func() time.Time { return now }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("app-%d", seq)
	}
	return svc, st, n
}

func openJob(id string) model.Job {
	return model.Job{
		ID:              id,
		Title:           "Engineer " + id,
		Department:      "Engineering",
		Location:        "Remote",
		Description:     "Build things",
		PostedAt:        now.AddDate(0, 0, -7),
		Active:          true,
		MaxApplications: 5,
	}
}

func TestSubmit_Accepts(t *testing.T) {
	ctx := context.Background()
	svc, st, notifier := newService(t, Options{}, openJob("j1"))
	applicant := session.NewApplicant("jane@example.com")

	app, err := svc.Submit(ctx, "j1", validForm(), applicant)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.Status != model.StatusPending || app.ID != "app-1" || !app.SubmittedAt.Equal(now) {
		t.Errorf("app = %+v", app)
	}
	if app.ResumeRef != "cv.pdf" || app.ResumeType != MIMEPDF || app.ResumeSize != 1024 {
		t.Errorf("resume ref = %q %q %d", app.ResumeRef, app.ResumeType, app.ResumeSize)
	}
	if !applicant.HasApplied("j1") {
		t.Error("applicant session not updated")
	}

	n, err := st.CountApplications(ctx, model.ApplicationFilter{JobID: "j1"})
	if err != nil || n != 1 {
		t.Errorf("count = %d, %v; want 1", n, err)
	}
	job, _ := st.GetJob(ctx, "j1")
	if job.ApplicationCount != 1 {
		t.Errorf("ApplicationCount = %d, want 1", job.ApplicationCount)
	}

	svc.Wait()
	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifier.count())
	}
	if got := notifier.sent[0]; got.Job.ID != "j1" || got.Application.ID != app.ID || got.Job.ApplicationCount != 1 {
		t.Errorf("notification = %+v", got)
	}
}

func TestSubmit_DuplicateAfterNormalization(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t, Options{}, openJob("j1"))

	f := validForm()
	f.Email = "a@b.com"
	if _, err := svc.Submit(ctx, "j1", f, nil); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	f.Email = " A@B.com "
	if _, err := svc.Submit(ctx, "j1", f, nil); !errors.Is(err, model.ErrDuplicateApplication) {
		t.Fatalf("second Submit err = %v, want ErrDuplicateApplication", err)
	}
	n, _ := st.CountApplications(ctx, model.ApplicationFilter{JobID: "j1"})
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSubmit_DailyRateLimit(t *testing.T) {
	ctx := context.Background()
	var jobs []model.Job
	for i := 1; i <= 6; i++ {
		jobs = append(jobs, openJob(fmt.Sprintf("j%d", i)))
	}
	svc, _, _ := newService(t, Options{}, jobs...)

	for i := 1; i <= 5; i++ {
		if _, err := svc.Submit(ctx, fmt.Sprintf("j%d", i), validForm(), nil); err != nil {
			t.Fatalf("Submit #%d: %v", i, err)
		}
	}
	if _, err := svc.Submit(ctx, "j6", validForm(), nil); !errors.Is(err, model.ErrRateLimitExceeded) {
		t.Fatalf("6th Submit err = %v, want ErrRateLimitExceeded", err)
	}

	svc.now = func() time.Time { return now.AddDate(0, 0, 1) }
	if _, err := svc.Submit(ctx, "j6", validForm(), nil); err != nil {
		t.Errorf("next-day Submit: %v", err)
	}
}

func TestSubmit_ValidationFailsBeforeLookup(t *testing.T) {
	svc, st, _ := newService(t, Options{})
	f := validForm()
	f.Phone = "abc"
	_, err := svc.Submit(context.Background(), "missing", f, nil)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if n, _ := st.CountApplications(context.Background(), model.ApplicationFilter{}); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestSubmit_JobState(t *testing.T) {
	closed := openJob("closed")
	closed.Active = false
	svc, _, notifier := newService(t, Options{}, closed)

	if _, err := svc.Submit(context.Background(), "nope", validForm(), nil); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("missing job err = %v, want ErrJobNotFound", err)
	}
	if _, err := svc.Submit(context.Background(), "closed", validForm(), nil); !errors.Is(err, model.ErrJobClosed) {
		t.Errorf("closed job err = %v, want ErrJobClosed", err)
	}
	svc.Wait()
	if notifier.count() != 0 {
		t.Errorf("notifications = %d, want 0", notifier.count())
	}
}

func TestSubmit_Capacity(t *testing.T) {
	ctx := context.Background()
	small := openJob("small")
	small.MaxApplications = 1

	t.Run("advisory by default", func(t *testing.T) {
		svc, _, _ := newService(t, Options{}, small)
		for _, email := range []string{"a@x.com", "b@x.com"} {
			f := validForm()
			f.Email = email
			if _, err := svc.Submit(ctx, "small", f, nil); err != nil {
				t.Fatalf("Submit(%s): %v", email, err)
			}
		}
	})

	t.Run("enforced", func(t *testing.T) {
		svc, _, _ := newService(t, Options{Policy: eligibility.Policy{EnforceCapacity: true}}, small)
		f := validForm()
		f.Email = "a@x.com"
		if _, err := svc.Submit(ctx, "small", f, nil); err != nil {
			t.Fatalf("first Submit: %v", err)
		}
		f.Email = "b@x.com"
		if _, err := svc.Submit(ctx, "small", f, nil); !errors.Is(err, model.ErrJobFull) {
			t.Errorf("err = %v, want ErrJobFull", err)
		}
	})
}

func TestSubmit_PersistenceError(t *testing.T) {
	svc, st, _ := newService(t, Options{}, openJob("j1"))
	svc.store = failingInsert{Gateway: st}
	applicant := session.NewApplicant("jane@example.com")

	_, err := svc.Submit(context.Background(), "j1", validForm(), applicant)
	var perr *model.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if perr.Op != "insert application" {
		t.Errorf("Op = %q", perr.Op)
	}
	if applicant.HasApplied("j1") {
		t.Error("applicant marked despite failed insert")
	}
}

func TestSubmit_NotificationFailureDoesNotFail(t *testing.T) {
	svc, _, notifier := newService(t, Options{}, openJob("j1"))
	notifier.err = errors.New("webhook down")

	if _, err := svc.Submit(context.Background(), "j1", validForm(), nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	svc.Wait()
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
}

func TestSubmit_OtherApplicantSessionUntouched(t *testing.T) {
	svc, _, _ := newService(t, Options{}, openJob("j1"))
	other := session.NewApplicant("someone@else.com")
	if _, err := svc.Submit(context.Background(), "j1", validForm(), other); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if other.HasApplied("j1") {
		t.Error("session for a different email was updated")
	}
}

func TestAppliedJobs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, Options{}, openJob("j1"), openJob("j2"))
	if _, err := svc.Submit(ctx, "j2", validForm(), nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ids, err := svc.AppliedJobs(ctx, "JANE@example.com")
	if err != nil {
		t.Fatalf("AppliedJobs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "j2" {
		t.Errorf("AppliedJobs = %v, want [j2]", ids)
	}
}
