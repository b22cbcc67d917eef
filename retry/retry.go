package retry

import (
	"context"
	"time"
)

// Do calls fn until it succeeds, fails with a non-transient error or the
// attempts run out. The backoff honors a larger server Retry-After and
// stops early when ctx is done.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	n := cfg.attempts()
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsTransient(err) || attempt == n-1 {
			return zero, err
		}
		if werr := wait(ctx, cfg, attempt, err); werr != nil {
			return zero, werr
		}
	}
}

// DoStream retries establishing a stream. Once a channel is returned its
// events are not retried.
func DoStream[T any](ctx context.Context, cfg Config, fn func() (<-chan T, error)) (<-chan T, error) {
	return Do(ctx, cfg, fn)
}

func wait(ctx context.Context, cfg Config, attempt int, err error) error {
	delay := cfg.Delay(attempt)
	if server := RetryAfter(err); server > delay {
		delay = server
	}
	if cfg.OnRetry != nil {
		cfg.OnRetry(attempt+1, delay, err)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
