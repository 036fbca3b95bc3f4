package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Broker.BasePort != 7650 {
		t.Errorf("expected base port 7650, got %d", cfg.Broker.BasePort)
	}
	if cfg.Broker.DefaultTimeoutSeconds != 300 {
		t.Errorf("expected default timeout 300, got %d", cfg.Broker.DefaultTimeoutSeconds)
	}
	if cfg.Broker.InactivityTimeout != 2*time.Minute {
		t.Errorf("expected inactivity timeout 2m, got %v", cfg.Broker.InactivityTimeout)
	}
	if cfg.Poller.ScanRange != 10 {
		t.Errorf("expected scan range 10, got %d", cfg.Poller.ScanRange)
	}
	if cfg.Poller.PollInterval != time.Second {
		t.Errorf("expected poll interval 1s, got %v", cfg.Poller.PollInterval)
	}
	// Broker and poller must agree on the rendezvous base port out of the box.
	if cfg.Broker.BasePort != cfg.Poller.BasePort {
		t.Errorf("broker and poller base ports differ: %d vs %d", cfg.Broker.BasePort, cfg.Poller.BasePort)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
broker:
  base_port: 9300
  auto_retry_hint: true
poller:
  scan_range: 20
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Broker.BasePort != 9300 {
		t.Errorf("expected base port 9300, got %d", cfg.Broker.BasePort)
	}
	if !cfg.Broker.AutoRetryHint {
		t.Error("expected auto_retry_hint true")
	}
	if cfg.Poller.ScanRange != 20 {
		t.Errorf("expected scan range 20, got %d", cfg.Poller.ScanRange)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Poller.FreshnessWindow != 10*time.Second {
		t.Errorf("expected default freshness window, got %v", cfg.Poller.FreshnessWindow)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("FEEDBACKFORGE_BASE_PORT", "8200")
	t.Setenv("FEEDBACKFORGE_TIMEOUT", "600")
	t.Setenv("FEEDBACKFORGE_POLL_INTERVAL", "2s")
	t.Setenv("FEEDBACKFORGE_LOG_LEVEL", "warn")

	loadEnv(&cfg)

	if cfg.Broker.BasePort != 8200 {
		t.Errorf("expected base port 8200, got %d", cfg.Broker.BasePort)
	}
	// The shared base port env moves both processes.
	if cfg.Poller.BasePort != 8200 {
		t.Errorf("expected poller base port 8200, got %d", cfg.Poller.BasePort)
	}
	if cfg.Broker.TimeoutOverrideSeconds != 600 {
		t.Errorf("expected timeout override 600, got %d", cfg.Broker.TimeoutOverrideSeconds)
	}
	if cfg.Poller.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.Poller.PollInterval)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "zero base port",
			modify: func(c *Config) { c.Broker.BasePort = 0 },
			errMsg: "broker.base_port must be a valid port",
		},
		{
			name:   "zero default timeout",
			modify: func(c *Config) { c.Broker.DefaultTimeoutSeconds = 0 },
			errMsg: "broker.default_timeout_seconds must be >= 1",
		},
		{
			name:   "zero scan range",
			modify: func(c *Config) { c.Poller.ScanRange = 0 },
			errMsg: "poller.scan_range must be >= 1",
		},
		{
			name:   "zero poll interval",
			modify: func(c *Config) { c.Poller.PollInterval = 0 },
			errMsg: "poller.poll_interval must be > 0",
		},
		{
			name:   "seen_keep above seen_cap",
			modify: func(c *Config) { c.Poller.SeenKeep = c.Poller.SeenCap + 1 },
			errMsg: "poller.seen_keep must be in [1, seen_cap]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}
