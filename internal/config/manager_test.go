package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "clocked.yaml")
	writeFile(t, path, `
logging:
  level: DEBUG
  console: true
api:
  enabled: true
  listen: "127.0.0.1:7601"
scheduler:
  horizon: "24h"
  fire_slack: "10s"
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Fatalf("Level = %q", cfg.Logging.Level)
	}
	if got := cfg.API.ListenAddr(); got != "127.0.0.1:7601" {
		t.Fatalf("ListenAddr = %q", got)
	}
	if got := cfg.FireSlack(); got != 10*time.Second {
		t.Fatalf("FireSlack = %v", got)
	}
	if got := cfg.Horizon(); got != 24*time.Hour {
		t.Fatalf("Horizon = %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	m := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.API.Enabled {
		t.Fatal("default config should enable the api")
	}
	if got := cfg.Horizon(); got != 24*time.Hour {
		t.Fatalf("Horizon = %v", got)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "clocked.yaml")
	writeFile(t, path, "logging:\n  level: INFO\nbogus_section:\n  x: 1\n")

	m := NewManager(path)
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsBadDurations(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "clocked.yaml")
	writeFile(t, path, "scheduler:\n  horizon: \"soon\"\n")

	m := NewManager(path)
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidateTelegramNeedsToken(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Telegram = &TelegramConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled telegram without token")
	}
}
