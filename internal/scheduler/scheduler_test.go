package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countingTask(name string, n *atomic.Int32) Task {
	return Task{Name: name, Run: func(context.Context) error {
		n.Add(1)
		return nil
	}}
}

func TestScheduler_RunsImmediately(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler([]Task{countingTask("count", &calls)}, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("task did not run on start")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 before the first tick", got)
	}
}

func TestScheduler_Ticks(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler([]Task{countingTask("count", &calls)}, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := calls.Load(); got < 3 {
		t.Errorf("calls = %d, want at least 3", got)
	}
}

func TestScheduler_ErrorDoesNotStopOthers(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string, err error) Task {
		return Task{Name: name, Run: func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return err
		}}
	}
	s := NewScheduler([]Task{
		record("first", errors.New("boom")),
		record("second", nil),
	}, time.Hour, discardLogger())

	s.runAll(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}

func TestScheduler_CancelledContextSkipsTasks(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler([]Task{countingTask("count", &calls)}, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runAll(ctx)

	if got := calls.Load(); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
}

func TestScheduler_NoTasksBlocksUntilCancel(t *testing.T) {
	s := NewScheduler(nil, time.Millisecond, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("Run returned before the context was done")
	}
}
