package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// Ensure RetryNotifier implements model.Notifier.
var _ model.Notifier = (*RetryNotifier)(nil)

// RetryNotifier is a decorator that retries transient delivery failures with
// exponential backoff and jitter before giving up. Only notifications go
// through it; persistence is never retried.
type RetryNotifier struct {
	inner      model.Notifier
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryNotifier wraps a Notifier with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryNotifier(inner model.Notifier, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryNotifier {
	return &RetryNotifier{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Notify delivers n, retrying on transient errors.
func (r *RetryNotifier) Notify(ctx context.Context, n model.Notification) error {
	err := r.inner.Notify(ctx, n)
	for attempt := 1; err != nil && isRetryable(err) && attempt <= r.maxRetries; attempt++ {
		delay := r.backoffDelay(attempt, err)

		r.logger.Warn("retrying notification after transient error",
			"application_id", n.Application.ID,
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		err = r.inner.Notify(ctx, n)
	}
	return err
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (r *RetryNotifier) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := r.baseDelay << (attempt - 1)

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}
