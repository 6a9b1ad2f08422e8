package admin

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
)

// TriageService lists applications for review and moves them between statuses.
// Any status may follow any other.
type TriageService struct {
	store  model.ApplicationStore
	logger *slog.Logger
}

// NewTriageService creates a TriageService.
func NewTriageService(store model.ApplicationStore, logger *slog.Logger) *TriageService {
	return &TriageService{store: store, logger: logger}
}

// List returns applications matching f joined with their job, newest first.
func (s *TriageService) List(ctx context.Context, f filter.ApplicationFilter) ([]model.ApplicationView, error) {
	views, err := s.store.ListApplications(ctx, f.Store())
	if err != nil {
		return nil, &model.PersistenceError{Op: "list applications", Err: err}
	}
	return views, nil
}

// SetStatus overwrites the status of application id.
func (s *TriageService) SetStatus(ctx context.Context, id string, status string) (model.Application, error) {
	st, err := model.ParseStatus(status)
	if err != nil {
		return model.Application{}, err
	}
	app, err := s.store.UpdateApplicationStatus(ctx, id, st)
	if err != nil {
		if errors.Is(err, model.ErrApplicationNotFound) {
			return model.Application{}, model.ErrApplicationNotFound
		}
		return model.Application{}, &model.PersistenceError{Op: "update status", Err: err}
	}
	s.logger.Info("application status changed", "application_id", id, "status", st)
	return app, nil
}
