package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleNotification() model.Notification {
	return model.Notification{
		Job: model.Job{
			ID:               "job-1",
			Title:            "Backend Engineer",
			Department:       "Engineering",
			Location:         "Remote",
			MaxApplications:  5,
			ApplicationCount: 2,
		},
		Application: model.Application{
			ID:          "app-1",
			JobID:       "job-1",
			FullName:    "Jane Doe",
			Email:       "jane@example.com",
			SubmittedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestSlackNotifier_Sends(t *testing.T) {
	var body []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Blocks) != 5 {
		t.Fatalf("blocks = %d, want 5", len(payload.Blocks))
	}
	if !strings.Contains(payload.Blocks[0].Text.Text, "Backend Engineer") {
		t.Errorf("header = %q", payload.Blocks[0].Text.Text)
	}
	if got := payload.Blocks[3].Fields[1].Text; got != "*Applications:*\n2 / 5" {
		t.Errorf("count field = %q", got)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "rate_limited")
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	err := n.Notify(context.Background(), sampleNotification())

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *model.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter != 7*time.Second {
		t.Errorf("HTTPError = %+v", httpErr)
	}
	if !strings.Contains(httpErr.Error(), "rate_limited") {
		t.Errorf("Error() = %q", httpErr.Error())
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	err := n.Notify(context.Background(), sampleNotification())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway || httpErr.RetryAfter != 0 {
		t.Errorf("err = %v", err)
	}
}

func TestSendTestMessage(t *testing.T) {
	var got model.Notification
	n := notifierFunc(func(_ context.Context, note model.Notification) error {
		got = note
		return nil
	})
	if err := SendTestMessage(context.Background(), n); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if got.Application.ID == "" || got.Job.Title != "Test Notification" {
		t.Errorf("notification = %+v", got)
	}
}

type notifierFunc func(context.Context, model.Notification) error

func (f notifierFunc) Notify(ctx context.Context, n model.Notification) error { return f(ctx, n) }
