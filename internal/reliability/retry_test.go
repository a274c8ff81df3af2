package reliability

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff(t *testing.T) {
	t.Run("creates with correct defaults", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 2.0, 3)

		assert.Equal(t, 100*time.Millisecond, eb.InitialInterval)
		assert.Equal(t, 5*time.Second, eb.MaxInterval)
		assert.Equal(t, 2.0, eb.Multiplier)
		assert.Equal(t, 3, eb.MaxRetries())
		assert.Equal(t, DefaultJitter, eb.JitterFraction)
	})

	t.Run("ShouldRetry respects max retries", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, time.Second, 2.0, 3)

		for i := 0; i < 3; i++ {
			shouldRetry, delay := eb.ShouldRetry(i, errors.New("test"))
			assert.True(t, shouldRetry)
			assert.Greater(t, delay, time.Duration(0))
		}

		shouldRetry, delay := eb.ShouldRetry(3, errors.New("test"))
		assert.False(t, shouldRetry)
		assert.Equal(t, time.Duration(0), delay)
	})

	t.Run("NextDelay calculates exponential backoff", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 10*time.Second, 2.0, 5)
		eb.JitterFraction = 0

		tests := []struct {
			attempt  int
			expected time.Duration
		}{
			{0, 100 * time.Millisecond},
			{1, 200 * time.Millisecond},
			{2, 400 * time.Millisecond},
			{10, 10 * time.Second},
			{1000, 10 * time.Second},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.expected, eb.NextDelay(tt.attempt), "attempt %d", tt.attempt)
		}
	})

	t.Run("NextDelay with jitter stays within 15 percent", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 10*time.Second, 2.0, 5)
		for i := 0; i < 20; i++ {
			d := eb.NextDelay(0)
			assert.InDelta(t, float64(100*time.Millisecond), float64(d), float64(15*time.Millisecond)+1)
		}
	})
}

func TestFixedDelay(t *testing.T) {
	fd := NewFixedDelay(50*time.Millisecond, 2)

	assert.Equal(t, 50*time.Millisecond, fd.NextDelay(7))
	assert.Equal(t, 2, fd.MaxRetries())

	ok, delay := fd.ShouldRetry(1, errors.New("boom"))
	assert.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, delay)

	ok, _ = fd.ShouldRetry(2, errors.New("boom"))
	assert.False(t, ok)
}

func TestRetry(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		var calls int32
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 3), func() error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, int32(1), calls)
	})

	t.Run("retries on failure", func(t *testing.T) {
		var calls int32
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 3), func() error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("temporary")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, int32(3), calls)
	})

	t.Run("returns last error after max retries", func(t *testing.T) {
		var calls int32
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 2), func() error {
			n := atomic.AddInt32(&calls, 1)
			return fmt.Errorf("failure %d", n)
		})

		assert.EqualError(t, err, "failure 3")
		assert.Equal(t, int32(3), calls)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls int32
		err := Retry(ctx, NewFixedDelay(time.Millisecond, 3), func() error {
			atomic.AddInt32(&calls, 1)
			return errors.New("never")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(0), calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		var calls int32
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 5), func() error {
			atomic.AddInt32(&calls, 1)
			return fmt.Errorf("bad input: %w", ErrNonRetryable)
		})

		assert.ErrorIs(t, err, ErrNonRetryable)
		assert.Equal(t, int32(1), calls)
	})
}

func TestIsRetryableError(t *testing.T) {
	t.Run("nil error is not retryable", func(t *testing.T) {
		assert.False(t, IsRetryableError(nil))
	})

	t.Run("argument mismatch is not retryable", func(t *testing.T) {
		err := &contracts.ArgumentMismatchError{Expected: 1, Got: 2, Index: -1}
		assert.False(t, IsRetryableError(fmt.Errorf("wrapped: %w", err)))
	})

	t.Run("RetryableError respects Retryable field", func(t *testing.T) {
		assert.True(t, IsRetryableError(RetryableError{Err: errors.New("x"), Retryable: true}))
		assert.False(t, IsRetryableError(fmt.Errorf("w: %w", RetryableError{Err: errors.New("x")})))
	})

	t.Run("unknown errors are retryable by default", func(t *testing.T) {
		assert.True(t, IsRetryableError(errors.New("unknown")))
	})
}

func TestRetryError(t *testing.T) {
	inner := errors.New("inner")
	err := &RetryError{Op: "derive", Attempts: 3, MaxAttempts: 3, LastError: inner, Duration: 1500 * time.Microsecond}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "derive after 3/3 attempts")
}
