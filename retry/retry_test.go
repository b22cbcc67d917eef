package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/stellar-agentkit/stellarflow"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
}

var errTransient = ai.NewTransientError("overloaded", 503, nil)

func TestDo(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		got, err := Do(context.Background(), DefaultConfig(), func() (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		var retried []int
		cfg := fastConfig(3)
		cfg.OnRetry = func(attempt int, delay time.Duration, err error) { retried = append(retried, attempt) }

		got, err := Do(context.Background(), cfg, func() (string, error) {
			calls++
			if calls < 3 {
				return "", errTransient
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		permanent := errors.New("invalid api key")
		_, err := Do(context.Background(), DefaultConfig(), func() (string, error) {
			calls++
			return "", permanent
		})
		assert.Same(t, permanent, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastConfig(3), func() (string, error) {
			calls++
			return "", errTransient
		})
		assert.Same(t, errTransient, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("disabled means one attempt", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), Disabled(), func() (string, error) {
			calls++
			return "", errTransient
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero config means one attempt", func(t *testing.T) {
		calls := 0
		_, _ = Do(context.Background(), Config{}, func() (int, error) {
			calls++
			return 0, errTransient
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("respects cancellation during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := Config{MaxAttempts: 10, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		calls := 0
		_, err := Do(ctx, cfg, func() (string, error) {
			calls++
			return "", errTransient
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("honors server retry-after", func(t *testing.T) {
		var delays []time.Duration
		cfg := fastConfig(2)
		cfg.OnRetry = func(attempt int, delay time.Duration, err error) { delays = append(delays, delay) }
		_, _ = Do(context.Background(), cfg, func() (string, error) {
			return "", ai.NewTransientErrorWithRetry("limited", 429, 30*time.Millisecond, nil)
		})
		assert.Equal(t, []time.Duration{30 * time.Millisecond}, delays)
	})
}

func TestDoStream(t *testing.T) {
	calls := 0
	ch, err := DoStream(context.Background(), fastConfig(3), func() (<-chan string, error) {
		calls++
		if calls < 2 {
			return nil, errTransient
		}
		c := make(chan string, 1)
		c <- "data"
		close(c)
		return c, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "data", <-ch)
	assert.Equal(t, 2, calls)
}

func TestConfigDelay(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, cfg.Delay(0))
	assert.Equal(t, 200*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 400*time.Millisecond, cfg.Delay(2))
	assert.Equal(t, time.Second, cfg.Delay(10))
	assert.Equal(t, 100*time.Millisecond, cfg.Delay(-1))

	cfg.Jitter = 0.1
	for i := 0; i < 20; i++ {
		d := cfg.Delay(0)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}
