package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the interception chain Prometheus metrics. It implements
// interceptors.MetricsCollector.
type Metrics struct {
	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		InvocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intercept_invocations_total",
			Help: "Total chain invocations per operation.",
		}, []string{"operation"}),

		InvocationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intercept_invocation_duration_seconds",
			Help:    "Time spent inside the wrapped part of the chain.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intercept_errors_total",
			Help: "Failed invocations by operation and failing phase.",
		}, []string{"operation", "phase"}),
	}
}

// IncrementInvocationCount implements interceptors.MetricsCollector
func (m *Metrics) IncrementInvocationCount(operation string) {
	m.InvocationsTotal.WithLabelValues(operation).Inc()
}

// RecordDuration implements interceptors.MetricsCollector
func (m *Metrics) RecordDuration(operation string, duration time.Duration) {
	m.InvocationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementErrorCount implements interceptors.MetricsCollector
func (m *Metrics) IncrementErrorCount(operation string, phase string) {
	m.ErrorsTotal.WithLabelValues(operation, phase).Inc()
}
