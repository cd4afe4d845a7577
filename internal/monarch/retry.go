package monarch

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// transientError marks a failure worth retrying: network errors, 5xx, and
// rate limits. Everything else fails fast.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

var defaultRetryPolicy = retryPolicy{maxAttempts: 3, baseDelay: 500 * time.Millisecond}

// retryPolicy retries transient failures with jittered exponential backoff.
// It lives at the collaborator boundary; the reconciliation engine never
// retries on its own.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	attempts := p.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := p.baseDelay << (attempt - 1)
			delay += time.Duration(rand.Int63n(int64(p.baseDelay))) //nolint:gosec // jitter, not crypto
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
	}
	return err
}
