package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skopos.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SKOPOS_CONFIG", path)
}

func TestDefaults(t *testing.T) {
	t.Setenv("SKOPOS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Transport != "sse" {
		t.Errorf("expected sse default, got %s", cfg.Server.Transport)
	}
	if cfg.Reconnect.MaxAttempts != 3 || cfg.Reconnect.BaseDelay != time.Second {
		t.Errorf("unexpected reconnect defaults: %+v", cfg.Reconnect)
	}
	if !cfg.Archive.Enabled {
		t.Error("expected archive enabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	writeConfig(t, `
server:
  url: https://orchestrator.example.com/stream
  transport: websocket
reconnect:
  max_attempts: 5
  base_delay: 250ms
bus:
  enabled: true
  port: 4333
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.URL != "https://orchestrator.example.com/stream" {
		t.Errorf("unexpected url: %s", cfg.Server.URL)
	}
	if cfg.Server.Transport != "websocket" {
		t.Errorf("unexpected transport: %s", cfg.Server.Transport)
	}
	if cfg.Reconnect.MaxAttempts != 5 || cfg.Reconnect.BaseDelay != 250*time.Millisecond {
		t.Errorf("unexpected reconnect: %+v", cfg.Reconnect)
	}
	if !cfg.Bus.Enabled || cfg.Bus.Port != 4333 {
		t.Errorf("unexpected bus: %+v", cfg.Bus)
	}
}

func TestEnvOverrides(t *testing.T) {
	writeConfig(t, "server:\n  url: https://file.example.com\n")
	t.Setenv("SKOPOS_SERVER_URL", "https://env.example.com")
	t.Setenv("SKOPOS_TRANSPORT", "post")
	t.Setenv("SKOPOS_RECONNECT_ATTEMPTS", "7")
	t.Setenv("SKOPOS_BUS_URL", "nats://bus.internal:4222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.URL != "https://env.example.com" {
		t.Errorf("expected env override, got %s", cfg.Server.URL)
	}
	if cfg.Server.Transport != "post" {
		t.Errorf("expected post, got %s", cfg.Server.Transport)
	}
	if cfg.Reconnect.MaxAttempts != 7 {
		t.Errorf("expected 7 attempts, got %d", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Bus.URL != "nats://bus.internal:4222" {
		t.Errorf("expected bus url override, got %s", cfg.Bus.URL)
	}
}

func TestExpandEnvInYAML(t *testing.T) {
	t.Setenv("STREAM_HOST", "orchestrator.internal")
	writeConfig(t, "server:\n  url: https://${STREAM_HOST}/stream\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.URL != "https://orchestrator.internal/stream" {
		t.Errorf("expected expansion, got %s", cfg.Server.URL)
	}
}

func TestInvalidTransportRejected(t *testing.T) {
	writeConfig(t, "server:\n  transport: carrier-pigeon\n")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}
