package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/model"
)

// APIError is the error envelope every failed request returns.
type APIError struct {
	Error struct {
		Code      string             `json:"code"`
		Message   string             `json:"message"`
		RequestID string             `json:"request_id,omitempty"`
		Fields    []model.FieldError `json:"fields,omitempty"`
	} `json:"error"`
}

func writeError(c *gin.Context, status int, code, message string, fields []model.FieldError) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(c)
	e.Error.Fields = fields
	c.AbortWithStatusJSON(status, e)
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *model.ValidationError
	var perr *model.PersistenceError

	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusUnprocessableEntity, "validation_failed", verr.Fields[0].Message, verr.Fields)
	case errors.Is(err, model.ErrDuplicateApplication):
		writeError(c, http.StatusConflict, "duplicate_application", err.Error(), nil)
	case errors.Is(err, model.ErrRateLimitExceeded):
		writeError(c, http.StatusTooManyRequests, "rate_limit_exceeded", err.Error(), nil)
	case errors.Is(err, model.ErrJobClosed):
		writeError(c, http.StatusConflict, "job_closed", err.Error(), nil)
	case errors.Is(err, model.ErrJobFull):
		writeError(c, http.StatusConflict, "job_full", err.Error(), nil)
	case errors.Is(err, model.ErrJobNotFound):
		writeError(c, http.StatusNotFound, "job_not_found", err.Error(), nil)
	case errors.Is(err, model.ErrApplicationNotFound):
		writeError(c, http.StatusNotFound, "application_not_found", err.Error(), nil)
	case errors.Is(err, model.ErrInvalidStatus):
		writeError(c, http.StatusBadRequest, "invalid_status", err.Error(), nil)
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, model.ErrSessionNotFound):
		writeError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case errors.As(err, &perr):
		writeError(c, http.StatusInternalServerError, "persistence_error", perr.Error(), nil)
	default:
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
