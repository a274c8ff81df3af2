package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/mmate-intercept/contracts"
)

// Built-in interceptors

// LoggingInterceptor logs every invocation it wraps
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingInterceptor{logger: logger}
}

// Around implements AroundInterceptor
func (i *LoggingInterceptor) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	start := time.Now()
	invocationID := InvocationID(ctx)

	i.logger.Info("invoking operation",
		"operation", op.String(),
		"invocationId", invocationID,
		"arity", len(args),
	)

	result, err := proceed(ctx, args)
	duration := time.Since(start)

	if err != nil {
		interceptor, phase, _ := FailedStage(err)
		i.logger.Error("operation failed",
			"operation", op.String(),
			"invocationId", invocationID,
			"duration", duration,
			"interceptor", interceptor,
			"phase", phase,
			"error", err,
		)
	} else {
		i.logger.Info("operation completed",
			"operation", op.String(),
			"invocationId", invocationID,
			"duration", duration,
		)
	}

	return result, err
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "logging"
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	IncrementInvocationCount(operation string)
	RecordDuration(operation string, duration time.Duration)
	IncrementErrorCount(operation string, phase string)
}

// MetricsInterceptor collects metrics about invocations
type MetricsInterceptor struct {
	collector MetricsCollector
}

// NewMetricsInterceptor creates a new metrics interceptor
func NewMetricsInterceptor(collector MetricsCollector) *MetricsInterceptor {
	return &MetricsInterceptor{collector: collector}
}

// Around implements AroundInterceptor
func (i *MetricsInterceptor) Around(ctx context.Context, op contracts.OperationID, args contracts.Args, proceed Proceed) (any, error) {
	start := time.Now()
	operation := op.String()

	i.collector.IncrementInvocationCount(operation)

	result, err := proceed(ctx, args)

	i.collector.RecordDuration(operation, time.Since(start))

	if err != nil {
		phase := "unknown"
		if _, p, ok := FailedStage(err); ok {
			phase = string(p)
		}
		i.collector.IncrementErrorCount(operation, phase)
	}

	return result, err
}

// Name implements Interceptor
func (i *MetricsInterceptor) Name() string {
	return "metrics"
}
