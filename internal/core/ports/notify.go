package ports

import (
	"context"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// Channel delivers a composed notification over one transport. The channel
// owns its wire format; callers never see transport details.
// Implementations: Slack-style chat webhook, PagerDuty-style paging.
type Channel interface {
	// Name identifies the channel in outcomes and logs.
	Name() string
	// Send delivers the notification, failing with a domain.ChannelError.
	Send(ctx context.Context, n *domain.Notification) error
}

// Dispatcher routes run outcomes to the configured channels. Channel failures
// are recorded in the outcome, never returned; notification is best-effort
// and must not alter a run's recorded status.
type Dispatcher interface {
	// NotifySuccess sends a run summary to the chat channel if one is
	// configured.
	NotifySuccess(ctx context.Context, report *domain.RunReport) domain.NotificationOutcome
	// NotifyFailure escalates to the paging channel, only when the detail's
	// severity is critical and a paging channel is configured.
	NotifyFailure(ctx context.Context, detail *domain.FailureDetail) domain.NotificationOutcome
}
