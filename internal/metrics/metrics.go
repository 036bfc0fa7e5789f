// Package metrics provides Prometheus instrumentation for the orchestrator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the orchestrator's Prometheus collectors. All observe methods
// are safe to call on a nil receiver so instrumentation stays optional.
type Metrics struct {
	// Pipeline runs by terminal status
	RunsTotal *prometheus.CounterVec

	// Per-stage execution latency
	StageDuration *prometheus.HistogramVec

	// Compliance standard evaluations by outcome
	ComplianceChecks *prometheus.CounterVec

	// Audit trail append failures
	AuditAppendFailures prometheus.Counter

	// Notification dispatches by channel and outcome
	NotificationsTotal *prometheus.CounterVec
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagegate_pipeline_runs_total",
			Help: "Total pipeline runs by terminal status",
		}, []string{"status"}), // status: "succeeded", "failed"

		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stagegate_stage_duration_seconds",
			Help:    "Duration of individual pipeline stage executions",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		ComplianceChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagegate_compliance_checks_total",
			Help: "Compliance standard evaluations by standard and outcome",
		}, []string{"standard", "status"}),

		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagegate_audit_append_failures_total",
			Help: "Total audit trail append failures",
		}),

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagegate_notifications_total",
			Help: "Notification channel dispatch attempts by channel and outcome",
		}, []string{"channel", "outcome"}), // outcome: "sent", "error"
	}
}

// IncRun records a finished pipeline run.
func (m *Metrics) IncRun(status string) {
	if m != nil {
		m.RunsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveStageDuration records the duration of one stage execution.
func (m *Metrics) ObserveStageDuration(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncComplianceCheck records one standard evaluation.
func (m *Metrics) IncComplianceCheck(standard, status string) {
	if m != nil {
		m.ComplianceChecks.WithLabelValues(standard, status).Inc()
	}
}

// IncAuditAppendFailure records a failed audit trail append.
func (m *Metrics) IncAuditAppendFailure() {
	if m != nil {
		m.AuditAppendFailures.Inc()
	}
}

// IncNotification records a channel dispatch attempt.
func (m *Metrics) IncNotification(channel, outcome string) {
	if m != nil {
		m.NotificationsTotal.WithLabelValues(channel, outcome).Inc()
	}
}
