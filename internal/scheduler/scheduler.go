package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Task is one periodic housekeeping job.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler owns the housekeeping loop: ticks on an interval and runs each
// task sequentially.
type Scheduler struct {
	tasks    []Task
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs all tasks at the given interval.
func NewScheduler(tasks []Task, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		interval: interval,
		logger:   logger,
	}
}

// Run runs one immediate cycle, then ticks on the configured interval. It
// returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.tasks) == 0 {
		<-ctx.Done()
		return nil
	}
	s.logger.Info("starting housekeeping",
		"interval", s.interval.String(),
		"tasks", len(s.tasks),
	)

	s.runAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("stopping housekeeping")
			return nil
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll runs each task in order. A failing task is logged and does not stop
// the others.
func (s *Scheduler) runAll(ctx context.Context) {
	for _, t := range s.tasks {
		if ctx.Err() != nil {
			return
		}
		if err := t.Run(ctx); err != nil {
			s.logger.Error("housekeeping task failed",
				"task", t.Name,
				"error", err,
			)
		}
	}
}
