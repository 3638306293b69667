package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulsed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
instance:
  id: pulse-test
server:
  url: wss://push.lumina.example/socket
  api_key: test-key
session:
  path: /var/lib/pulse/session.json
`

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}

	if cfg.Instance.ID != "pulse-test" {
		t.Errorf("Instance.ID = %q, want pulse-test", cfg.Instance.ID)
	}
	if cfg.Server.URL != "wss://push.lumina.example/socket" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}

	// Defaults applied.
	if cfg.Connection.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("ReconnectDelay = %v, want %v", cfg.Connection.ReconnectDelay, DefaultReconnectDelay)
	}
	if cfg.Connection.ReconnectAttempts != DefaultReconnectAttempts {
		t.Errorf("ReconnectAttempts = %d, want %d", cfg.Connection.ReconnectAttempts, DefaultReconnectAttempts)
	}
	if cfg.Toast.Position != DefaultToastPosition {
		t.Errorf("Toast.Position = %q, want %q", cfg.Toast.Position, DefaultToastPosition)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("PULSE_TEST_KEY", "from-env")

	path := writeConfig(t, `
instance:
  id: pulse-test
server:
  url: wss://push.lumina.example/socket
  api_key: ${PULSE_TEST_KEY}
session:
  path: /var/lib/pulse/session.json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIKey != "from-env" {
		t.Errorf("Server.APIKey = %q, want from-env", cfg.Server.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/pulsed.yaml"); err == nil {
		t.Error("Load() of a missing file should return an error")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id",
		},
		{
			name:    "missing server url",
			mutate:  func(c *Config) { c.Server.URL = "" },
			wantErr: "server.url",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Server.APIKey = "" },
			wantErr: "server.api_key",
		},
		{
			name:    "missing session path",
			mutate:  func(c *Config) { c.Session.Path = "" },
			wantErr: "session.path",
		},
		{
			name:    "bad metrics port",
			mutate:  func(c *Config) { c.Metrics.Port = 99999 },
			wantErr: "metrics.port",
		},
		{
			name: "archive without host",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Database = DBConfig{Name: "pulse", User: "u", Password: "p", MaxConns: 2}
				c.Archive.BatchSize = 10
				c.Archive.BufferSize = 10
			},
			wantErr: "archive.database.host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(writeConfig(t, minimalConfig))
			if err != nil {
				t.Fatalf("LoadWithDefaults() error = %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestArchiveDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
archive:
  enabled: true
  database:
    host: localhost
    name: pulse
    user: pulse
    password: pw
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}

	if cfg.Archive.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want %d", cfg.Archive.Database.Port, DefaultDBPort)
	}
	if cfg.Archive.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.Archive.BatchSize, DefaultBatchSize)
	}
	if cfg.Archive.FlushInterval != 2*time.Second {
		t.Errorf("FlushInterval = %v, want 2s", cfg.Archive.FlushInterval)
	}
}
