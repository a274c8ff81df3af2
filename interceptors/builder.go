package interceptors

import (
	"log/slog"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/glimte/mmate-intercept/internal/reliability"
)

// ChainBuilder builds a chain for one operation
type ChainBuilder struct {
	operation     *contracts.Operation
	registrations []Registration
	logger        *slog.Logger
}

// NewChainBuilder creates a new builder
func NewChainBuilder(op *contracts.Operation, logger *slog.Logger) *ChainBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChainBuilder{
		operation: op,
		logger:    logger,
	}
}

// Add registers an enabled interceptor
func (b *ChainBuilder) Add(interceptor Interceptor, sortOrder int) *ChainBuilder {
	b.registrations = append(b.registrations, Register(interceptor, sortOrder))
	return b
}

// AddDisabled registers an interceptor that is excluded from execution
func (b *ChainBuilder) AddDisabled(interceptor Interceptor, sortOrder int) *ChainBuilder {
	b.registrations = append(b.registrations, Registration{Interceptor: interceptor, SortOrder: sortOrder})
	return b
}

// WithRegistration adds a prepared registration
func (b *ChainBuilder) WithRegistration(reg Registration) *ChainBuilder {
	b.registrations = append(b.registrations, reg)
	return b
}

// WithLogging adds logging interceptor
func (b *ChainBuilder) WithLogging(sortOrder int) *ChainBuilder {
	return b.Add(NewLoggingInterceptor(b.logger), sortOrder)
}

// WithMetrics adds metrics interceptor
func (b *ChainBuilder) WithMetrics(collector MetricsCollector, sortOrder int) *ChainBuilder {
	return b.Add(NewMetricsInterceptor(collector), sortOrder)
}

// WithCaching adds caching interceptor
func (b *ChainBuilder) WithCaching(cache ResultCache, sortOrder int) *ChainBuilder {
	return b.Add(NewCachingInterceptor(cache), sortOrder)
}

// WithRetry adds retry interceptor
func (b *ChainBuilder) WithRetry(policy reliability.RetryPolicy, sortOrder int) *ChainBuilder {
	return b.Add(NewRetryInterceptor(policy).WithLogger(b.logger), sortOrder)
}

// Build returns the built chain
func (b *ChainBuilder) Build() (*Chain, error) {
	return NewChain(b.operation, b.registrations...)
}
