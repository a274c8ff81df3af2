package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/glimte/mmate-intercept/internal/reliability"
)

// RetryInterceptor re-invokes the rest of the chain while the retry policy
// allows it. Every attempt runs the inner interceptors and the target
// operation again, so it only belongs in front of side-effect free targets.
type RetryInterceptor struct {
	retryPolicy reliability.RetryPolicy
	logger      *slog.Logger
}

// NewRetryInterceptor creates a new retry interceptor
func NewRetryInterceptor(retryPolicy reliability.RetryPolicy) *RetryInterceptor {
	return &RetryInterceptor{
		retryPolicy: retryPolicy,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the retry interceptor
func (r *RetryInterceptor) WithLogger(logger *slog.Logger) *RetryInterceptor {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Around implements AroundInterceptor
func (r *RetryInterceptor) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	start := time.Now()
	attempts := 0

	var result any
	err := reliability.Retry(ctx, r.retryPolicy, func() error {
		attempts++
		var err error
		result, err = proceed(ctx, args)
		if err != nil {
			r.logger.Debug("attempt failed",
				"operation", op.String(),
				"invocationId", InvocationID(ctx),
				"attempt", attempts,
				"error", err,
			)
		}
		return err
	})
	if err != nil {
		return nil, &reliability.RetryError{
			Op:          op.String(),
			Attempts:    attempts,
			MaxAttempts: r.retryPolicy.MaxRetries() + 1,
			LastError:   err,
			Duration:    time.Since(start),
		}
	}
	return result, nil
}

// Name returns the interceptor name
func (r *RetryInterceptor) Name() string {
	return "retry"
}
