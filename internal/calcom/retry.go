package calcom

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often an idempotent read is attempted and how long
// to wait between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// Backoff returns the wait after the given failed attempt (1-based)
	Backoff func(attempt int) time.Duration
}

// DefaultCatalogRetry is the policy for listing event types: 3 attempts,
// waiting 0.5s then 1.0s.
func DefaultCatalogRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(500 * time.Millisecond)}
}

// NoRetry attempts a request once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// LinearBackoff waits step, 2*step, 3*step, ... after successive failures.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

var errRetryableResult = errors.New("retryable result")

func (p RetryPolicy) backoff() retry.Backoff {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	failed := 0
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		failed++
		if p.Backoff == nil {
			return 0, false
		}
		return p.Backoff(failed), false
	})
	return retry.WithMaxRetries(uint64(maxAttempts-1), b)
}

// Run calls fn until it returns a non-error Result or attempts run out, and
// returns the last Result. onFailure, if set, sees each failed attempt. When
// ctx ends before fn ran at all, the result is a request failure for op.
func (p RetryPolicy) Run(ctx context.Context, op string, fn func(context.Context) Result, onFailure func(attempt int, r Result)) Result {
	var last Result
	attempt := 0

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		last = fn(ctx)
		if !last.IsError() {
			return nil
		}
		if onFailure != nil {
			onFailure(attempt, last)
		}
		return retry.RetryableError(errRetryableResult)
	})

	if attempt == 0 {
		if err == nil {
			err = context.Cause(ctx)
		}
		if err == nil {
			err = context.Canceled
		}
		return failure(&RequestError{Op: op, Message: err.Error(), Err: err})
	}
	return last
}
