package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var creds = Credentials{Email: "admin@jobboard.com", Password: "admin123"}

func TestManager_LoginAuthenticateLogout(t *testing.T) {
	ctx := context.Background()
	m := NewManager(creds, NewMemoryStore(), time.Hour, discardLogger())

	s, err := m.Login(ctx, " Admin@JobBoard.com ", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.ID == "" || s.AdminEmail != "admin@jobboard.com" {
		t.Errorf("session = %+v", s)
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != time.Hour {
		t.Errorf("ttl = %v, want 1h", got)
	}

	got, err := m.Authenticate(ctx, s.ID)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("Authenticate id = %q, want %q", got.ID, s.ID)
	}

	if err := m.Logout(ctx, s.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := m.Authenticate(ctx, s.ID); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("after logout err = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_LoginRejectsBadCredentials(t *testing.T) {
	m := NewManager(creds, NewMemoryStore(), time.Hour, discardLogger())
	tests := []struct{ email, password string }{
		{"admin@jobboard.com", "wrong"},
		{"someone@jobboard.com", "admin123"},
		{"", ""},
	}
	for _, tt := range tests {
		if _, err := m.Login(context.Background(), tt.email, tt.password); !errors.Is(err, model.ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) err = %v, want ErrInvalidCredentials", tt.email, tt.password, err)
		}
	}
}

func TestManager_LoginRejectsEmptyConfiguredPassword(t *testing.T) {
	m := NewManager(Credentials{Email: "admin@jobboard.com"}, NewMemoryStore(), time.Hour, discardLogger())
	if _, err := m.Login(context.Background(), "admin@jobboard.com", ""); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestManager_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	m := NewManager(creds, st, time.Minute, discardLogger())
	s, err := m.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	later := s.ExpiresAt.Add(time.Second)
	m.now = func() time.Time { return later }
	st.now = func() time.Time { return later }

	if _, err := m.Authenticate(ctx, s.ID); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_AuthenticateEmptyToken(t *testing.T) {
	m := NewManager(creds, NewMemoryStore(), 0, discardLogger())
	if m.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", m.ttl, DefaultTTL)
	}
	if _, err := m.Authenticate(context.Background(), ""); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestApplicant(t *testing.T) {
	a := NewApplicant("  Jane@Example.com ")
	if a.Email != "jane@example.com" {
		t.Errorf("Email = %q", a.Email)
	}
	if a.HasApplied("j1") {
		t.Error("new applicant should have no applications")
	}
	a.MarkApplied("j2")
	a.MarkApplied("j1")
	a.MarkApplied("j2")
	if !a.HasApplied("j1") {
		t.Error("HasApplied(j1) = false after MarkApplied")
	}
	if got := a.AppliedJobs(); !reflect.DeepEqual(got, []string{"j1", "j2"}) {
		t.Errorf("AppliedJobs() = %v", got)
	}
}

func TestLoadApplicant(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"j1", "j2"} {
		if _, err := s.CreateJob(ctx, model.Job{ID: id, Title: id, Department: "Eng", Location: "Remote", Description: "d", PostedAt: now, Active: true, MaxApplications: 5}); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}
	apps := []model.Application{
		{ID: "a1", JobID: "j1", Email: "jane@example.com", Status: model.StatusPending, SubmittedAt: now},
		{ID: "a2", JobID: "j2", Email: "other@example.com", Status: model.StatusPending, SubmittedAt: now},
	}
	for _, app := range apps {
		if _, err := s.InsertApplication(ctx, app, model.InsertGuard{}); err != nil {
			t.Fatalf("InsertApplication: %v", err)
		}
	}

	a, err := LoadApplicant(ctx, s, "JANE@example.com")
	if err != nil {
		t.Fatalf("LoadApplicant: %v", err)
	}
	if got := a.AppliedJobs(); !reflect.DeepEqual(got, []string{"j1"}) {
		t.Errorf("AppliedJobs() = %v, want [j1]", got)
	}

	empty, err := LoadApplicant(ctx, s, "")
	if err != nil {
		t.Fatalf("LoadApplicant(empty): %v", err)
	}
	if len(empty.AppliedJobs()) != 0 {
		t.Errorf("empty email AppliedJobs() = %v", empty.AppliedJobs())
	}
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st := NewMemoryStore()
	st.now = func() time.Time { return base }

	_ = st.Save(ctx, Session{ID: "old", ExpiresAt: base.Add(-time.Minute)})
	_ = st.Save(ctx, Session{ID: "live", ExpiresAt: base.Add(time.Hour)})

	if n := st.Purge(ctx); n != 1 {
		t.Errorf("Purge removed %d, want 1", n)
	}
	if _, err := st.Get(ctx, "live"); err != nil {
		t.Errorf("live session: %v", err)
	}
	if _, err := st.Get(ctx, "old"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("old session err = %v, want ErrSessionNotFound", err)
	}
}
