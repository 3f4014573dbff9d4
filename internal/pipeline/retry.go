package pipeline

import (
	"context"
	"time"

	"clipline/internal/logging"
)

// RetryPolicy bounds how often a transient failure is re-attempted.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Retry runs op up to policy.Attempts times, backing off exponentially
// between attempts. Only transient failures are retried; a permanent
// failure or context cancellation returns immediately.
func Retry(ctx context.Context, policy RetryPolicy, logger *logging.Logger, label string, op func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == attempts {
			return lastErr
		}
		if logger != nil {
			logger.Warnw("retrying after transient failure",
				"op", label,
				"attempt", attempt,
				"max_attempts", attempts,
				"delay", delay,
				"error", lastErr,
			)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return lastErr
}
