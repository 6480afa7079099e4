// Package metrics exports authgate telemetry to Prometheus. It is one Sink
// implementation; the collector's queues stay provider-agnostic.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	authgate "github.com/bizmatch/go-authgate"
)

// Sink counts classified auth errors and observes operation latencies.
type Sink struct {
	errors    *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

var _ authgate.Sink = (*Sink)(nil)

// NewSink registers the collectors on reg (pass prometheus.DefaultRegisterer
// for the default registry).
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "errors_total",
			Help:      "Classified authentication errors by type and severity.",
		}, []string{"type", "severity", "retryable"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "operations_total",
			Help:      "Authentication operations by outcome.",
		}, []string{"operation", "success"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "authgate",
			Name:      "operation_duration_seconds",
			Help:      "End-to-end duration of authentication operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(s.errors, s.attempts, s.durations)
	return s
}

func (s *Sink) RecordError(_ context.Context, err *authgate.AuthError) error {
	if err == nil {
		return nil
	}
	s.errors.WithLabelValues(
		string(err.Type),
		string(err.Severity),
		strconv.FormatBool(err.Retryable),
	).Inc()
	return nil
}

func (s *Sink) RecordMetric(_ context.Context, metric authgate.Metric) error {
	s.attempts.WithLabelValues(metric.Operation, strconv.FormatBool(metric.Success)).Inc()
	s.durations.WithLabelValues(metric.Operation).Observe(metric.Duration.Seconds())
	return nil
}
