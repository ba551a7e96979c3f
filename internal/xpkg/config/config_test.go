package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleConfig = `
database:
  host: "localhost"
  port: "5432"
  user: "comanda"
  password: "secret"
  database: "comanda"

rabbitmq:
  enabled: true
  host: "broker"
  port: "5672"
  user: "guest"
  password: "guest"

events:
  heartbeat_seconds: 30
  buffer_size: 64
  reconnect_seconds: 2
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.DB.Host != "localhost" || cfg.DB.Database != "comanda" {
		t.Fatalf("db config = %+v", cfg.DB)
	}
	if !cfg.RMQ.Enabled || cfg.RMQ.Host != "broker" {
		t.Fatalf("rmq config = %+v", cfg.RMQ)
	}
	if cfg.Events.Heartbeat() != 30*time.Second {
		t.Fatalf("heartbeat = %v", cfg.Events.Heartbeat())
	}
	if cfg.Events.Buffer() != 64 {
		t.Fatalf("buffer = %d", cfg.Events.Buffer())
	}
	if cfg.Events.Reconnect() != 2*time.Second {
		t.Fatalf("reconnect = %v", cfg.Events.Reconnect())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Host != "db.internal" {
		t.Fatalf("db host = %q, want env override", cfg.DB.Host)
	}
	if cfg.DB.Password != "from-env" {
		t.Fatalf("db password = %q, want env override", cfg.DB.Password)
	}
	if cfg.DB.Port != "5432" {
		t.Fatalf("db port = %q, file value must survive", cfg.DB.Port)
	}
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "events:\n  heartbeat_seconds: 5\n")); err == nil {
		t.Fatal("expected error for missing database section")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEventsDefaults(t *testing.T) {
	var events *Events
	if events.Heartbeat() != 15*time.Second {
		t.Fatalf("default heartbeat = %v", events.Heartbeat())
	}
	if events.Buffer() != 16 {
		t.Fatalf("default buffer = %d", events.Buffer())
	}
	if events.Reconnect() != 5*time.Second {
		t.Fatalf("default reconnect = %v", events.Reconnect())
	}

	zero := &Events{}
	if zero.Heartbeat() != 15*time.Second || zero.Buffer() != 16 || zero.Reconnect() != 5*time.Second {
		t.Fatalf("zero-value events = %v %d %v", zero.Heartbeat(), zero.Buffer(), zero.Reconnect())
	}
}
