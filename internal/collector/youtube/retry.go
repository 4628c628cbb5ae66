package youtube

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"google.golang.org/api/googleapi"
)

const (
	maxAttempts = 4
	baseDelay   = 1 * time.Second
	maxDelay    = 30 * time.Second
)

func asGoogleAPIError(err error, target **googleapi.Error) bool {
	return errors.As(err, target)
}

// WithRetry runs fn up to maxAttempts times, backing off exponentially with
// jitter between attempts. Only transient failures are retried; auth and
// quota errors return immediately.
func WithRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		delay := backoffDelay(attempt)
		log.Printf("%s failed (attempt %d/%d), retrying in %v: %v", op, attempt, maxAttempts, delay, lastErr)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func backoffDelay(attempt int) time.Duration {
	delay := baseDelay * time.Duration(1<<(attempt-1))
	if delay > maxDelay {
		delay = maxDelay
	}
	// jitter 0..500ms
	return delay + time.Duration(rand.Intn(500))*time.Millisecond
}
