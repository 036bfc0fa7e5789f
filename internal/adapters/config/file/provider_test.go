package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagegate-io/stagegate/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestNewProvider_EmptyPath(t *testing.T) {
	if _, err := NewProvider(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestProvider_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "server:\n  port: 9001\n")

	p, err := NewProvider(path)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	cfg, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.Server.Port)
	}
	if p.Current() != cfg {
		t.Error("Current() should return the last loaded config")
	}
}

func TestProvider_Watch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "server:\n  port: 9001\n")

	p, err := NewProvider(path)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := p.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	changed := make(chan *config.Config, 1)
	err = p.Watch(ctx, func(cfg *config.Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeConfig(t, path, "server:\n  port: 9002\n")

	select {
	case cfg := <-changed:
		if cfg.Server.Port != 9002 {
			t.Errorf("expected reloaded port 9002, got %d", cfg.Server.Port)
		}
		if p.Current().Server.Port != 9002 {
			t.Errorf("Current() not updated, got port %d", p.Current().Server.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
