package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDuplicateApplication = errors.New("you have already applied for this job")
	ErrRateLimitExceeded    = errors.New("you cannot apply for more than the daily limit of jobs")
	ErrJobNotFound          = errors.New("job not found")
	ErrJobClosed            = errors.New("job is not accepting applications")
	ErrJobFull              = errors.New("job has reached its application limit")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrInvalidStatus        = errors.New("invalid application status")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrSessionNotFound      = errors.New("session not found or expired")
)

// FieldError is a single failed input check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field that failed, in input order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a failure for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds failures and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PersistenceError wraps an opaque gateway failure. It is never retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
