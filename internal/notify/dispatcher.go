// Package notify routes pipeline outcomes to notification channels with
// severity-based escalation.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/metrics"
)

// Dispatcher routes run outcomes to an optional chat channel and an optional
// paging channel. Channel configuration is fixed at construction and never
// mutated mid-run; absent channels are skipped silently. Delivery is
// best-effort: a channel failure is logged and counted, never returned.
type Dispatcher struct {
	chat    ports.Channel
	paging  ports.Channel
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithChatChannel sets the channel receiving success summaries.
func WithChatChannel(ch ports.Channel) Option {
	return func(d *Dispatcher) {
		d.chat = ch
	}
}

// WithPagingChannel sets the channel receiving critical failure alerts.
func WithPagingChannel(ch ports.Channel) Option {
	return func(d *Dispatcher) {
		d.paging = ch
	}
}

// WithLogger sets a logger for delivery reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher. With no options it routes nowhere,
// which is a valid deployment.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifySuccess sends a run summary to the chat channel if one is configured.
func (d *Dispatcher) NotifySuccess(ctx context.Context, report *domain.RunReport) domain.NotificationOutcome {
	outcome := domain.NotificationOutcome{
		NotificationsSent: []string{},
		Status:            domain.OutcomeSuccess,
	}
	if d.chat == nil {
		return outcome
	}

	if err := d.send(ctx, d.chat, successNotification(report)); err == nil {
		outcome.NotificationsSent = append(outcome.NotificationsSent, d.chat.Name())
	}
	return outcome
}

// NotifyFailure escalates to the paging channel. Only critical failures page;
// high severity never reaches the paging channel.
func (d *Dispatcher) NotifyFailure(ctx context.Context, detail *domain.FailureDetail) domain.NotificationOutcome {
	outcome := domain.NotificationOutcome{
		NotificationsSent: []string{},
		Status:            domain.OutcomeFailureNotified,
	}
	if d.paging == nil || detail.Severity != domain.SeverityCritical {
		return outcome
	}

	if err := d.send(ctx, d.paging, failureNotification(detail)); err == nil {
		outcome.NotificationsSent = append(outcome.NotificationsSent, d.paging.Name())
	}
	return outcome
}

func (d *Dispatcher) send(ctx context.Context, ch ports.Channel, n *domain.Notification) error {
	if err := ch.Send(ctx, n); err != nil {
		d.metrics.IncNotification(ch.Name(), "error")
		d.logger.Error("notification channel send failed",
			slog.String("channel", ch.Name()),
			slog.String("kind", string(n.Kind)),
			slog.String("error", err.Error()))
		return err
	}

	d.metrics.IncNotification(ch.Name(), "sent")
	d.logger.Info("notification sent",
		slog.String("channel", ch.Name()),
		slog.String("kind", string(n.Kind)))
	return nil
}

func successNotification(report *domain.RunReport) *domain.Notification {
	records := "N/A"
	if report.RecordsProcessed != nil {
		records = fmt.Sprintf("%v", report.RecordsProcessed)
	}
	processingTime := report.ProcessingTime
	if processingTime == "" {
		processingTime = "N/A"
	}
	compliance := report.ComplianceStatus
	if compliance == "" {
		compliance = domain.ComplianceUnknown
	}

	return &domain.Notification{
		Kind:  domain.NotificationSuccess,
		Title: "Pipeline completed successfully",
		Fields: []domain.NotificationField{
			{Label: "Pipeline Status", Value: report.Status},
			{Label: "Processing Time", Value: processingTime},
			{Label: "Records Processed", Value: records},
			{Label: "Compliance Status", Value: string(compliance)},
		},
	}
}

func failureNotification(detail *domain.FailureDetail) *domain.Notification {
	return &domain.Notification{
		Kind:     domain.NotificationFailure,
		Title:    "CRITICAL: Pipeline Execution Failure",
		Severity: detail.Severity,
		Details:  detail.AsMap(),
	}
}
