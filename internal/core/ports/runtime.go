package ports

import (
	"context"

	"github.com/stagegate-io/stagegate/internal/config"
)

// ConfigProvider loads and manages configuration.
// Implementations: file-based (default).
type ConfigProvider interface {
	Load(ctx context.Context) (*config.Config, error)
	// Watch invokes onChange with each successfully reloaded configuration.
	// Channel and audit settings are fixed for the process lifetime; only the
	// pipeline definition is applied to future runs.
	Watch(ctx context.Context, onChange func(*config.Config)) error
	Close() error
}
