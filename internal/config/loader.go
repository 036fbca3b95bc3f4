package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "feedbackforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setInt(&cfg.Broker.BasePort, "FEEDBACKFORGE_BASE_PORT")
	setInt(&cfg.Broker.DefaultTimeoutSeconds, "FEEDBACKFORGE_DEFAULT_TIMEOUT")
	// FEEDBACKFORGE_TIMEOUT is the operator override: it beats the tool-call
	// parameter, so a human-configured default is never silently shortened by
	// the AI's own choice.
	setInt(&cfg.Broker.TimeoutOverrideSeconds, "FEEDBACKFORGE_TIMEOUT")
	setDuration(&cfg.Broker.InactivityTimeout, "FEEDBACKFORGE_INACTIVITY_TIMEOUT")
	setDuration(&cfg.Broker.InactivityCheck, "FEEDBACKFORGE_INACTIVITY_CHECK")
	setDuration(&cfg.Broker.ShutdownGrace, "FEEDBACKFORGE_SHUTDOWN_GRACE")
	setBool(&cfg.Broker.AutoRetryHint, "FEEDBACKFORGE_AUTO_RETRY_HINT")

	setInt(&cfg.Poller.BasePort, "FEEDBACKFORGE_BASE_PORT")
	setInt(&cfg.Poller.ScanRange, "FEEDBACKFORGE_SCAN_RANGE")
	setDuration(&cfg.Poller.PollInterval, "FEEDBACKFORGE_POLL_INTERVAL")
	setDuration(&cfg.Poller.GetTimeout, "FEEDBACKFORGE_GET_TIMEOUT")
	setDuration(&cfg.Poller.PostTimeout, "FEEDBACKFORGE_POST_TIMEOUT")
	setDuration(&cfg.Poller.FreshnessWindow, "FEEDBACKFORGE_FRESHNESS_WINDOW")

	setString(&cfg.Logging.Level, "FEEDBACKFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "FEEDBACKFORGE_LOG_SERVICE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Broker.BasePort < 1 || cfg.Broker.BasePort > 65535 {
		return errors.New("broker.base_port must be a valid port")
	}
	if cfg.Broker.DefaultTimeoutSeconds < 1 {
		return errors.New("broker.default_timeout_seconds must be >= 1")
	}
	if cfg.Poller.ScanRange < 1 {
		return errors.New("poller.scan_range must be >= 1")
	}
	if cfg.Poller.PollInterval <= 0 {
		return errors.New("poller.poll_interval must be > 0")
	}
	if cfg.Poller.SeenKeep < 1 || cfg.Poller.SeenKeep > cfg.Poller.SeenCap {
		return errors.New("poller.seen_keep must be in [1, seen_cap]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
