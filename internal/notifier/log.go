package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobboard/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new applications to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each application via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the application with its job. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, note model.Notification) error {
	n.logger.Info("new application",
		"application_id", note.Application.ID,
		"job_id", note.Job.ID,
		"title", note.Job.Title,
		"applicant", note.Application.FullName,
		"email", note.Application.Email,
		"applications", note.Job.ApplicationCount,
		"capacity", note.Job.Capacity(),
	)
	return nil
}
