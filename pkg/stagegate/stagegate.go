// Package stagegate provides the public API for embedding the pipeline
// orchestrator. This is the stable API for external consumers.
package stagegate

import (
	"github.com/stagegate-io/stagegate/internal/runtime"
)

// Service is the main entry point for running the orchestrator.
// See internal/runtime.Service for full documentation.
type Service = runtime.Service

// Option is a functional option for configuring a Service.
type Option = runtime.Option

// New creates a new Service with the given options.
// Example:
//
//	svc, err := stagegate.New(
//	    stagegate.WithFileConfig("config.yaml"),
//	    stagegate.WithSQLiteAudit("./data/stagegate.db"),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Audit trail
	WithMemoryAudit = runtime.WithMemoryAudit
	WithSQLiteAudit = runtime.WithSQLiteAudit
	WithAuditTrail  = runtime.WithAuditTrail

	// Notification channels
	WithSlackChannel     = runtime.WithSlackChannel
	WithPagerDutyChannel = runtime.WithPagerDutyChannel
	WithChatChannel      = runtime.WithChatChannel
	WithPagingChannel    = runtime.WithPagingChannel

	// Advanced options
	WithLogger  = runtime.WithLogger
	WithMetrics = runtime.WithMetrics
)
