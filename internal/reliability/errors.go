package reliability

import (
	"errors"
	"fmt"
	"time"

	"github.com/glimte/mmate-intercept/contracts"
)

var (
	// ErrNonRetryable marks an error that must not be retried
	ErrNonRetryable = errors.New("retry: error is not retryable")
)

// RetryError represents a retry operation error
type RetryError struct {
	Op          string
	Attempts    int
	MaxAttempts int
	LastError   error
	Duration    time.Duration
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry failed: %s after %d/%d attempts over %v: %v",
		e.Op, e.Attempts, e.MaxAttempts, e.Duration.Round(time.Millisecond), e.LastError)
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableError checks if an error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrNonRetryable):
		return false
	case errors.Is(err, contracts.ErrArgumentMismatch):
		return false
	}

	type retryable interface {
		IsRetryable() bool
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	return true
}

// RetryableError wraps an error to indicate whether it's retryable
type RetryableError struct {
	Err       error
	Retryable bool
}

// Error implements error interface
func (r RetryableError) Error() string {
	return r.Err.Error()
}

// IsRetryable indicates if the error is retryable
func (r RetryableError) IsRetryable() bool {
	return r.Retryable
}

// Unwrap returns the wrapped error
func (r RetryableError) Unwrap() error {
	return r.Err
}
