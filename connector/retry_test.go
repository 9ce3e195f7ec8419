package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryConnect(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		got, err := retryConnect(context.Background(), cfg, func(context.Context) (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("refused")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		boom := errors.New("refused")
		attempts := 0
		_, err := retryConnect(context.Background(), cfg, func(context.Context) (string, error) {
			attempts++
			return "", boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, cfg.MaxRetries+1, attempts)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := retryConnect(ctx, &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}, func(context.Context) (string, error) {
			return "", errors.New("refused")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
