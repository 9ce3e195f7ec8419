package connector

import (
	"context"
	"time"
)

// retryConnect retries connectFn with exponential backoff until it
// succeeds, the retry budget runs out, or the context is canceled.
func retryConnect[T any](ctx context.Context, cfg *RetryConfig, connectFn func(context.Context) (T, error)) (T, error) {
	var zero T
	var err error

	delay := cfg.BaseDelay
	if delay == 0 {
		delay = time.Second
	}

	attempts := cfg.MaxRetries + 1
	for i := 0; i < attempts; i++ {
		var conn T
		conn, err = connectFn(ctx)
		if err == nil {
			return conn, nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}
	return zero, err
}
