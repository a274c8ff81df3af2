package reliability

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryPolicy decides whether a failed invocation is attempted again
type RetryPolicy interface {
	// ShouldRetry reports whether attempt (zero based) may be followed by
	// another one and how long to wait before it
	ShouldRetry(attempt int, err error) (bool, time.Duration)
	// MaxRetries is the number of attempts allowed after the first
	MaxRetries() int
	// NextDelay is the wait before the attempt following attempt
	NextDelay(attempt int) time.Duration
}

// DefaultJitter spreads exponential delays by ±15%
const DefaultJitter = 0.15

// ExponentialBackoff grows the delay by Multiplier per attempt up to
// MaxInterval. JitterFraction randomizes each delay within ±JitterFraction.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int
	JitterFraction  float64
}

// NewExponentialBackoff creates an exponential policy with DefaultJitter
func NewExponentialBackoff(initial, max time.Duration, multiplier float64, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
		MaxAttempts:     maxRetries,
		JitterFraction:  DefaultJitter,
	}
}

// ShouldRetry implements RetryPolicy
func (e *ExponentialBackoff) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if !allowed(attempt, e.MaxAttempts, err) {
		return false, 0
	}
	return true, e.NextDelay(attempt)
}

// MaxRetries implements RetryPolicy
func (e *ExponentialBackoff) MaxRetries() int {
	return e.MaxAttempts
}

// NextDelay implements RetryPolicy
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(e.InitialInterval)
	limit := float64(e.MaxInterval)
	for i := 0; i < attempt && delay < limit; i++ {
		delay *= e.Multiplier
	}
	delay = min(delay, limit)

	if e.JitterFraction > 0 {
		// uniform in [1-f, 1+f]
		delay *= 1 + e.JitterFraction*(2*rand.Float64()-1)
	}
	return time.Duration(delay)
}

// FixedDelay waits the same Delay before every retry
type FixedDelay struct {
	Delay       time.Duration
	MaxAttempts int
}

// NewFixedDelay creates a fixed delay policy
func NewFixedDelay(delay time.Duration, maxRetries int) *FixedDelay {
	return &FixedDelay{Delay: delay, MaxAttempts: maxRetries}
}

// ShouldRetry implements RetryPolicy
func (f *FixedDelay) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if !allowed(attempt, f.MaxAttempts, err) {
		return false, 0
	}
	return true, f.Delay
}

// MaxRetries implements RetryPolicy
func (f *FixedDelay) MaxRetries() int {
	return f.MaxAttempts
}

// NextDelay implements RetryPolicy
func (f *FixedDelay) NextDelay(int) time.Duration {
	return f.Delay
}

func allowed(attempt, maxRetries int, err error) bool {
	return attempt < maxRetries && IsRetryableError(err)
}

// Retry runs fn until it succeeds, the policy gives up or ctx ends. The
// error of the last attempt is returned unchanged.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		again, wait := policy.ShouldRetry(attempt, err)
		if !again {
			return err
		}

		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
