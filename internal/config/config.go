// Package config provides hierarchical configuration loading for FeedbackForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for both FeedbackForge processes.
type Config struct {
	Broker  Broker  `yaml:"broker"`
	Poller  Poller  `yaml:"poller"`
	Logging Logging `yaml:"logging"`
}

// Broker holds request-broker configuration: the HTTP side-channel port,
// feedback timeouts, and the inactivity self-termination policy.
type Broker struct {
	BasePort int `yaml:"base_port"` // First candidate port; incremented on collision.

	DefaultTimeoutSeconds  int `yaml:"default_timeout_seconds"`  // Used when the tool call supplies none (default: 300)
	TimeoutOverrideSeconds int `yaml:"timeout_override_seconds"` // Operator override; beats the tool-call parameter when > 0

	InactivityTimeout time.Duration `yaml:"inactivity_timeout"` // Idle age that triggers self-termination (default: 2m)
	InactivityCheck   time.Duration `yaml:"inactivity_check"`   // How often idleness is evaluated (default: 1m)
	ShutdownGrace     time.Duration `yaml:"shutdown_grace"`     // Delay between /api/shutdown reply and process exit

	AutoRetryHint bool `yaml:"auto_retry_hint"` // Extends the timeout sentinel wording with a re-call hint
}

// Poller holds discovery-poller configuration: the port range scanned for
// brokers and the cadence/thresholds of the scan loop.
type Poller struct {
	BasePort  int `yaml:"base_port"`
	ScanRange int `yaml:"scan_range"` // Number of sequential ports probed from BasePort

	PollInterval time.Duration `yaml:"poll_interval"`
	GetTimeout   time.Duration `yaml:"get_timeout"`  // Per-port budget for poll GETs
	PostTimeout  time.Duration `yaml:"post_timeout"` // Budget for answer submission

	FreshnessWindow time.Duration `yaml:"freshness_window"` // Requests younger than this may steal focus

	SeenCap  int `yaml:"seen_cap"`  // Seen-set size that triggers trimming
	SeenKeep int `yaml:"seen_keep"` // Most-recent entries retained after a trim
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Broker: Broker{
			BasePort:              7650,
			DefaultTimeoutSeconds: 300,
			InactivityTimeout:     2 * time.Minute,
			InactivityCheck:       time.Minute,
			ShutdownGrace:         250 * time.Millisecond,
		},
		Poller: Poller{
			BasePort:        7650,
			ScanRange:       10,
			PollInterval:    time.Second,
			GetTimeout:      3 * time.Second,
			PostTimeout:     5 * time.Second,
			FreshnessWindow: 10 * time.Second,
			SeenCap:         100,
			SeenKeep:        50,
		},
		Logging: Logging{
			Level:   "info",
			Service: "feedbackforge",
		},
	}
}
