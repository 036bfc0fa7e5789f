package runtime

import (
	"fmt"
	"log/slog"

	"github.com/stagegate-io/stagegate/internal/adapters/config/file"
	"github.com/stagegate-io/stagegate/internal/adapters/storage/sqlite"
	"github.com/stagegate-io/stagegate/internal/channel/pagerduty"
	"github.com/stagegate-io/stagegate/internal/channel/slack"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/metrics"
	"github.com/stagegate-io/stagegate/internal/storage/memory"
)

// Option is a functional option for configuring a Service.
type Option func(*Service) error

// WithFileConfig uses file-based configuration with hot-reload (default).
// The path should point to a config.yaml file that will be watched for
// changes.
func WithFileConfig(path string) Option {
	return func(s *Service) error {
		provider, err := file.NewProvider(path)
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		s.config = provider
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
// For advanced use cases where you need full control over config loading.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(s *Service) error {
		s.config = provider
		return nil
	}
}

// WithMemoryAudit uses the in-memory audit trail regardless of
// configuration. Reports do not survive a restart.
func WithMemoryAudit() Option {
	return func(s *Service) error {
		s.audit = memory.New()
		return nil
	}
}

// WithSQLiteAudit uses the SQLite audit trail at the given path regardless
// of configuration.
func WithSQLiteAudit(path string) Option {
	return func(s *Service) error {
		trail, err := sqlite.NewProvider(path)
		if err != nil {
			return fmt.Errorf("create sqlite audit trail: %w", err)
		}
		s.audit = trail
		return nil
	}
}

// WithAuditTrail sets a custom audit trail.
func WithAuditTrail(trail ports.AuditTrail) Option {
	return func(s *Service) error {
		s.audit = trail
		return nil
	}
}

// WithSlackChannel routes success summaries to a Slack incoming webhook.
func WithSlackChannel(webhookURL string) Option {
	return func(s *Service) error {
		ch, err := slack.New(webhookURL)
		if err != nil {
			return fmt.Errorf("create slack channel: %w", err)
		}
		s.chat = ch
		return nil
	}
}

// WithPagerDutyChannel routes critical failure alerts to PagerDuty using the
// given Events API routing key.
func WithPagerDutyChannel(routingKey string) Option {
	return func(s *Service) error {
		ch, err := pagerduty.New(routingKey)
		if err != nil {
			return fmt.Errorf("create pagerduty channel: %w", err)
		}
		s.paging = ch
		return nil
	}
}

// WithChatChannel sets a custom channel for success summaries.
func WithChatChannel(ch ports.Channel) Option {
	return func(s *Service) error {
		s.chat = ch
		return nil
	}
}

// WithPagingChannel sets a custom channel for critical failure alerts.
func WithPagingChannel(ch ports.Channel) Option {
	return func(s *Service) error {
		s.paging = ch
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the Prometheus collectors runs report into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) error {
		s.metrics = m
		return nil
	}
}
