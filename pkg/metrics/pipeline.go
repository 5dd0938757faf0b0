package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records per-operation pipeline outcomes and lock contention.
type PipelineMetrics struct {
	duration       *prometheus.HistogramVec
	success        *prometheus.CounterVec
	failure        *prometheus.CounterVec
	lockContention *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_operation_duration_seconds",
		Help:    "Duration of payment pipeline operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_operation_success",
		Help: "Successful payment pipeline runs.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_operation_failure",
		Help: "Failed payment pipeline runs.",
	}, []string{"operation", "code"})
	lockContention := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_lock_contention",
		Help: "Pipeline runs rejected because the payment lock was held.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, lockContention)
	return &PipelineMetrics{
		duration:       duration,
		success:        success,
		failure:        failure,
		lockContention: lockContention,
	}
}

// ObserveDuration records the duration for the named operation.
func (p *PipelineMetrics) ObserveDuration(operation string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (p *PipelineMetrics) IncSuccess(operation string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation and code.
func (p *PipelineMetrics) IncFailure(operation, code string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// IncLockContention counts a run that lost the payment lock race.
func (p *PipelineMetrics) IncLockContention(operation string) {
	if p == nil || p.lockContention == nil {
		return
	}
	p.lockContention.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
