// Package runtime wires the pipeline orchestrator, compliance validation,
// audit trail, and notification channels into a running service and manages
// its lifecycle.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stagegate-io/stagegate/internal/adapters/storage/sqlite"
	"github.com/stagegate-io/stagegate/internal/channel/pagerduty"
	"github.com/stagegate-io/stagegate/internal/channel/slack"
	"github.com/stagegate-io/stagegate/internal/compliance"
	"github.com/stagegate-io/stagegate/internal/config"
	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/internal/core/ports"
	"github.com/stagegate-io/stagegate/internal/metrics"
	"github.com/stagegate-io/stagegate/internal/notify"
	"github.com/stagegate-io/stagegate/internal/pipeline"
	"github.com/stagegate-io/stagegate/internal/server"
	"github.com/stagegate-io/stagegate/internal/storage/memory"
)

// Service is the main entry point for running the orchestrator. It manages
// configuration, the pipeline, the audit trail, notification channels, and
// the HTTP server lifecycle. Service can be embedded in larger applications
// or run standalone; the one-shot CLI uses Bootstrap plus Run without Start.
type Service struct {
	// Dependencies (injected via options)
	config ports.ConfigProvider
	audit  ports.AuditTrail
	chat   ports.Channel
	paging ports.Channel

	logger  *slog.Logger
	metrics *metrics.Metrics

	// Built during bootstrap
	registry   *compliance.Registry
	validator  *compliance.Validator
	dispatcher ports.Dispatcher

	// Reloadable state: the pipeline definition is swapped for future runs
	// on config change; in-flight runs keep the orchestrator they started
	// with.
	cfg  *config.Config
	orch ports.Orchestrator

	server *http.Server

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

var _ server.Runner = (*Service)(nil)

// New creates a Service with the given options. The audit trail and
// notification channels default from configuration during bootstrap when no
// option supplies them.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		logger:    slog.Default(),
		registry:  compliance.NewRegistry(),
		validator: compliance.NewValidator(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	// Validate required dependencies
	if s.config == nil {
		return nil, fmt.Errorf("config provider required (use WithFileConfig or WithConfigProvider)")
	}

	return s, nil
}

// Bootstrap loads configuration and builds the pipeline, audit trail,
// channels, and dispatcher without starting the HTTP server. It is meant for
// one-shot runs; Start performs the same work as part of bringing the
// service up.
func (s *Service) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrap(ctx)
}

func (s *Service) bootstrap(ctx context.Context) error {
	cfg, err := s.config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Fail fast on unknown standards before any run starts
	if _, err := s.registry.Resolve(cfg.Compliance.Standards); err != nil {
		return err
	}

	orch, err := pipeline.NewOrchestratorFromConfig(cfg.Pipeline,
		pipeline.WithLogger(s.logger),
		pipeline.WithMetrics(s.metrics))
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	if s.audit == nil {
		trail, err := newAuditTrail(cfg.Audit)
		if err != nil {
			return err
		}
		s.audit = trail
	}

	if s.chat == nil && cfg.Notifications.SlackWebhookURL != "" {
		ch, err := slack.New(cfg.Notifications.SlackWebhookURL)
		if err != nil {
			return fmt.Errorf("create chat channel: %w", err)
		}
		s.chat = ch
	}
	if s.paging == nil && cfg.Notifications.PagerDutyIntegrationKey != "" {
		ch, err := pagerduty.New(cfg.Notifications.PagerDutyIntegrationKey,
			pagerduty.WithSource(cfg.Notifications.Source))
		if err != nil {
			return fmt.Errorf("create paging channel: %w", err)
		}
		s.paging = ch
	}

	dopts := []notify.Option{notify.WithLogger(s.logger), notify.WithMetrics(s.metrics)}
	if s.chat != nil {
		dopts = append(dopts, notify.WithChatChannel(s.chat))
	}
	if s.paging != nil {
		dopts = append(dopts, notify.WithPagingChannel(s.paging))
	}
	s.dispatcher = notify.NewDispatcher(dopts...)

	s.cfg = cfg
	s.orch = orch

	s.logger.Info("service bootstrapped",
		slog.String("pipeline", cfg.Pipeline.Name),
		slog.Int("stages", len(cfg.Pipeline.Stages)),
		slog.Any("standards", cfg.Compliance.Standards),
		slog.String("audit_driver", cfg.Audit.Driver),
		slog.Bool("chat_channel", s.chat != nil),
		slog.Bool("paging_channel", s.paging != nil))

	return nil
}

// newAuditTrail builds the trail the configuration names.
func newAuditTrail(cfg config.AuditConfig) (ports.AuditTrail, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.NewProvider(cfg.DSN)
	default:
		return nil, domain.NewConfigurationError("audit.driver", "unknown audit driver %q", cfg.Driver)
	}
}

// Start initializes the service and brings up the HTTP server.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.bootstrap(s.ctx); err != nil {
		return err
	}

	if err := s.startServer(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	// Watch for config changes
	go s.watchConfig()

	s.logger.Info("service started",
		slog.Int("port", s.cfg.Server.Port),
		slog.String("pipeline", s.cfg.Pipeline.Name))

	return nil
}

// Shutdown gracefully stops the service.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("shutting down service")

	if s.cancel != nil {
		s.cancel()
	}

	// Stop HTTP server
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	// Close resources
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			s.logger.Error("failed to close audit trail", slog.String("error", err.Error()))
		}
	}

	if s.config != nil {
		if err := s.config.Close(); err != nil {
			s.logger.Error("failed to close config", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("service shutdown complete")
	return nil
}

// watchConfig watches for config changes and reloads.
func (s *Service) watchConfig() {
	onChange := func(newCfg *config.Config) {
		s.logger.Info("config changed, reloading")
		if err := s.reload(newCfg); err != nil {
			s.logger.Error("failed to reload", slog.String("error", err.Error()))
		}
	}

	if err := s.config.Watch(s.ctx, onChange); err != nil {
		if err != context.Canceled {
			s.logger.Error("config watch failed", slog.String("error", err.Error()))
		}
	}
}

// reload applies a changed configuration. Only the pipeline definition takes
// effect, and only for future runs; channel and audit settings are fixed for
// the process lifetime.
func (s *Service) reload(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Resolve(cfg.Compliance.Standards); err != nil {
		return err
	}

	orch, err := pipeline.NewOrchestratorFromConfig(cfg.Pipeline,
		pipeline.WithLogger(s.logger),
		pipeline.WithMetrics(s.metrics))
	if err != nil {
		return fmt.Errorf("rebuild pipeline: %w", err)
	}

	if prev := s.cfg; prev != nil {
		if prev.Notifications != cfg.Notifications {
			s.logger.Warn("notification settings changed, restart required to apply")
		}
		if prev.Audit != cfg.Audit {
			s.logger.Warn("audit settings changed, restart required to apply")
		}
	}

	s.cfg = cfg
	s.orch = orch

	s.logger.Info("reload complete",
		slog.String("pipeline", cfg.Pipeline.Name),
		slog.Int("stages", len(cfg.Pipeline.Stages)))

	return nil
}

// startServer starts the HTTP server.
func (s *Service) startServer() error {
	handlers := server.NewHandlers(s, s.audit, s.logger)
	router := server.NewRouter(s.logger, handlers)

	port := s.cfg.Server.Port
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No global write timeout: run responses can take minutes and the
		// per-route middleware already bounds the work.
	}
	srv := s.server

	// Start server in background
	go func() {
		s.logger.Info("HTTP server listening", slog.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}
