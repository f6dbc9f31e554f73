package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.ListenAddr != "127.0.0.1" || cfg.Server.HTTPPort != 8080 {
		t.Errorf("server defaults = %s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	}
	if cfg.Database.Path != "scrim-metrics.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Logs.Dir != "logs" || cfg.Logs.BaseURL != "" {
		t.Errorf("log store defaults = %+v", cfg.Logs)
	}
	if cfg.Workers != 4 || cfg.LogLevel != "info" {
		t.Errorf("workers/log level = %d/%q", cfg.Workers, cfg.LogLevel)
	}
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  http_port: 9090
database:
  path: /tmp/scrim-test.db
logs:
  base_url: https://logs.example.com
  api_key: secret
workers: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port = %d, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Database.Path != "/tmp/scrim-test.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Logs.BaseURL != "https://logs.example.com" || cfg.Logs.APIKey != "secret" {
		t.Errorf("log store = %+v", cfg.Logs)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}

	// Unset fields still pick up defaults.
	if cfg.Server.ListenAddr != "127.0.0.1" || cfg.LogLevel != "info" || cfg.Logs.Dir != "logs" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
