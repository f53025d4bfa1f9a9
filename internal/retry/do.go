package retry

import (
	"context"
	"fmt"
	"time"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
)

// rateLimitMultiplier stretches the base delay when the remote side asked us to slow down.
const rateLimitMultiplier = 3

// ExhaustedError reports that every attempt failed with a retryable error.
// It unwraps to the last attempt's error so its classification survives.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Options configures Do. Zero-valued hooks fall back to defaults.
type Options struct {
	Policy Policy
	// Retryable reports whether a failed attempt may be retried. Defaults to ferrors.IsTransient.
	Retryable func(err error) bool
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is invoked before each retry with the 1-based retry number.
	OnRetry func(retry int, delay time.Duration, err error)
}

// Do runs fn until it succeeds, fails permanently, or the policy's retry budget is spent.
// fn receives the 0-based attempt number. The returned int is the number of attempts made.
func Do(ctx context.Context, opts Options, fn func(ctx context.Context, attempt int) error) (int, error) {
	retryable := opts.Retryable
	if retryable == nil {
		retryable = ferrors.IsTransient
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err
		if !retryable(err) {
			return attempt + 1, err
		}
		if attempt == opts.Policy.MaxRetries {
			break
		}

		delay := opts.Policy.Delay(attempt + 1)
		if ferrors.GetRetryStrategy(err) == ferrors.RetryRateLimit {
			delay *= rateLimitMultiplier
		}
		if ferrors.GetRetryStrategy(err) == ferrors.RetryReprompt {
			// a corrective prompt does not need the service to recover
			delay = 0
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, delay, err)
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return attempt + 1, err
			}
		}
	}
	return opts.Policy.MaxRetries + 1, &ExhaustedError{Attempts: opts.Policy.MaxRetries + 1, Err: lastErr}
}

// SleepContext blocks for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
