package core

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation counters and latency histograms
// through a prometheus registry.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the engine collectors on reg (the
// default registerer when nil). Re-registering against the same registry
// reuses the existing collectors.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oystercult",
		Name:      "operations_total",
		Help:      "Total service operations by outcome.",
	}, []string{"operation", "status"})

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "oystercult",
		Name:      "operation_duration_seconds",
		Help:      "Service operation latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})

	if err := reg.Register(operations); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		operations = already.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(durations); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		durations = already.ExistingCollector.(*prometheus.HistogramVec)
	}

	return &PrometheusMetricsRecorder{operations: operations, durations: durations}, nil
}

// Observe implements the MetricsRecorder interface.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation, status).Observe(duration.Seconds())
}

var _ MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
