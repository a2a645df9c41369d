// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, file and environment overrides, and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "CHARM_HOST"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t3nets.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr = %s, want 127.0.0.1:8080", cfg.Server.Addr())
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s, want gpt-4o-mini", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.OpenAI.Timeout)
	}
	if cfg.OpenAI.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.OpenAI.MaxRetries)
	}
	if cfg.Routing.Threshold != 0.5 {
		t.Errorf("Threshold = %f, want 0.5", cfg.Routing.Threshold)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Backend = %s, want sqlite", cfg.Storage.Backend)
	}
	if !strings.HasSuffix(cfg.Storage.SQLitePath(), filepath.Join("t3nets", "t3nets.db")) {
		t.Errorf("SQLitePath = %s, want .../t3nets/t3nets.db", cfg.Storage.SQLitePath())
	}
	if cfg.Storage.Charm.DBName != "t3nets" || !cfg.Storage.Charm.AutoSync {
		t.Errorf("Charm = %+v, want db t3nets with auto sync", cfg.Storage.Charm)
	}
	if cfg.Tenant.DefaultID != "local" || cfg.Tenant.MaxHistory != 20 {
		t.Errorf("Tenant = %+v, want local with 20 turns", cfg.Tenant)
	}
	if cfg.Secrets.EnvFile != ".env" || cfg.Secrets.UseKeyring {
		t.Errorf("Secrets = %+v, want .env without keyring", cfg.Secrets)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 9090
openai:
  chat_model: gpt-4o
  retry_delay: 500ms
routing:
  threshold: 0.65
storage:
  backend: charm
  db_path: /tmp/custom.db
  charm:
    sync_schedule: "@every 10m"
tenant:
  default_id: acme
  enabled_skills: [ping]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %s, want gpt-4o", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.RetryDelay != 500*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 500ms", cfg.OpenAI.RetryDelay)
	}
	if cfg.Routing.Threshold != 0.65 {
		t.Errorf("Threshold = %f, want 0.65", cfg.Routing.Threshold)
	}
	if cfg.Storage.Backend != BackendCharm || cfg.Storage.SQLitePath() != "/tmp/custom.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Charm.SyncSchedule != "@every 10m" {
		t.Errorf("SyncSchedule = %q", cfg.Storage.Charm.SyncSchedule)
	}
	if cfg.Tenant.DefaultID != "acme" || len(cfg.Tenant.EnabledSkills) != 1 || cfg.Tenant.EnabledSkills[0] != "ping" {
		t.Errorf("Tenant = %+v", cfg.Tenant)
	}
	if cfg.Tenant.MaxHistory != 20 {
		t.Errorf("MaxHistory = %d, want default 20", cfg.Tenant.MaxHistory)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-plain")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("T3NETS_SERVER_PORT", "7000")
	t.Setenv("T3NETS_ROUTING_THRESHOLD", "0.8")
	t.Setenv("T3NETS_OPENAI_TIMEOUT", "5s")

	path := writeConfig(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-plain" {
		t.Errorf("APIKey = %q, want sk-plain", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.OpenAI.BaseURL)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want env to win over file", cfg.Server.Port)
	}
	if cfg.Routing.Threshold != 0.8 {
		t.Errorf("Threshold = %f, want 0.8", cfg.Routing.Threshold)
	}
	if cfg.OpenAI.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.OpenAI.Timeout)
	}

	t.Setenv("T3NETS_OPENAI_API_KEY", "sk-prefixed")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-prefixed" {
		t.Errorf("APIKey = %q, want prefixed variable to win", cfg.OpenAI.APIKey)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
	if _, err := Load(writeConfig(t, "routing:\n  threshold: 1.5\n")); err == nil {
		t.Error("expected validation error for threshold")
	}
	if _, err := Load(writeConfig(t, "server: [\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"threshold zero", func(c *Config) { c.Routing.Threshold = 0 }, false},
		{"threshold negative", func(c *Config) { c.Routing.Threshold = -0.1 }, true},
		{"threshold above one", func(c *Config) { c.Routing.Threshold = 1.1 }, true},
		{"retries too many", func(c *Config) { c.OpenAI.MaxRetries = 11 }, true},
		{"retries negative", func(c *Config) { c.OpenAI.MaxRetries = -1 }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"no history", func(c *Config) { c.Tenant.MaxHistory = 0 }, true},
		{"blank tenant", func(c *Config) { c.Tenant.DefaultID = " " }, true},
		{"charm backend", func(c *Config) { c.Storage.Backend = BackendCharm }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "dynamo" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
