package eligibility

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func app(jobID string, at time.Time) model.Application {
	return model.Application{JobID: jobID, Email: "a@b.com", SubmittedAt: at}
}

func sameDay(n int) []model.Application {
	var apps []model.Application
	for i := 0; i < n; i++ {
		apps = append(apps, app(fmt.Sprintf("job-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}
	return apps
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		cand    Candidate
		history []model.Application
		want    error
	}{
		{
			name: "no history is eligible",
			cand: Candidate{JobID: "j1", Email: "a@b.com"},
			want: nil,
		},
		{
			name:    "existing application for same job",
			cand:    Candidate{JobID: "job-0", Email: "a@b.com"},
			history: sameDay(1),
			want:    model.ErrDuplicateApplication,
		},
		{
			name:    "four today is still eligible",
			cand:    Candidate{JobID: "new", Email: "a@b.com"},
			history: sameDay(4),
			want:    nil,
		},
		{
			name:    "sixth application in one day",
			cand:    Candidate{JobID: "new", Email: "a@b.com"},
			history: sameDay(5),
			want:    model.ErrRateLimitExceeded,
		},
		{
			name:    "duplicate wins over rate limit",
			cand:    Candidate{JobID: "job-2", Email: "a@b.com"},
			history: sameDay(5),
			want:    model.ErrDuplicateApplication,
		},
		{
			name: "yesterday does not count",
			cand: Candidate{JobID: "new", Email: "a@b.com"},
			history: []model.Application{
				app("y1", now.AddDate(0, 0, -1)),
				app("y2", now.AddDate(0, 0, -1)),
				app("y3", now.AddDate(0, 0, -1)),
				app("y4", now.AddDate(0, 0, -1)),
				app("y5", now.AddDate(0, 0, -1)),
			},
			want: nil,
		},
		{
			name:    "custom limit",
			policy:  Policy{DailyLimit: 2},
			cand:    Candidate{JobID: "new", Email: "a@b.com"},
			history: sameDay(2),
			want:    model.ErrRateLimitExceeded,
		},
		{
			name: "full job is advisory by default",
			cand: Candidate{JobID: "new", Email: "a@b.com", Job: model.Job{ApplicationCount: 5, MaxApplications: 5}},
			want: nil,
		},
		{
			name:   "full job rejected when capacity enforced",
			policy: Policy{EnforceCapacity: true},
			cand:   Candidate{JobID: "new", Email: "a@b.com", Job: model.Job{ApplicationCount: 5, MaxApplications: 5}},
			want:   model.ErrJobFull,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.policy, tt.cand, tt.history, now)
			if !errors.Is(got, tt.want) {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	history := sameDay(3)
	c := Candidate{JobID: "new", Email: "a@b.com"}
	first := Evaluate(Policy{}, c, history, now)
	for i := 0; i < 10; i++ {
		if got := Evaluate(Policy{}, c, history, now); got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
	if len(history) != 3 {
		t.Errorf("history mutated: len = %d", len(history))
	}
}

func TestWindowIsUTCCalendarDay(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	// 22:00 EST on Mar 9 is 03:00 UTC on Mar 10.
	start, end := Window(time.Date(2026, 3, 9, 22, 0, 0, 0, est))

	wantStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("end = %v, want %v", end, wantStart.Add(24*time.Hour))
	}
}

func TestCountInWindowBoundaries(t *testing.T) {
	start, end := Window(now)
	history := []model.Application{
		app("a", start),                      // inclusive
		app("b", end.Add(-time.Nanosecond)),  // inside
		app("c", end),                        // exclusive
		app("d", start.Add(-time.Nanosecond)), // before
	}
	if got := CountInWindow(history, now); got != 2 {
		t.Errorf("CountInWindow = %d, want 2", got)
	}
}

func TestGuard(t *testing.T) {
	job := model.Job{MaxApplications: 8}

	g := Policy{}.Guard(job, now)
	if g.DailyLimit != DefaultDailyLimit {
		t.Errorf("DailyLimit = %d, want %d", g.DailyLimit, DefaultDailyLimit)
	}
	if g.MaxApplications != 0 {
		t.Errorf("MaxApplications = %d, want 0 when capacity is advisory", g.MaxApplications)
	}

	g = Policy{EnforceCapacity: true}.Guard(job, now)
	if g.MaxApplications != 8 {
		t.Errorf("MaxApplications = %d, want 8", g.MaxApplications)
	}
	start, _ := Window(now)
	if !g.WindowStart.Equal(start) {
		t.Errorf("WindowStart = %v, want %v", g.WindowStart, start)
	}
}
