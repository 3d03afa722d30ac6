// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package config

import (
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for all settings
//  2. Config File: Optional YAML config file
//  3. Environment Variables: Override any setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Relay    RelayConfig    `koanf:"relay"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production"
}

// RelayConfig bounds what a single source connection may push through the relay.
type RelayConfig struct {
	// MaxFrameRate is the sustained frames per second accepted per source.
	// Frames above the rate are dropped before fan-out. 0 disables the limit.
	MaxFrameRate float64 `koanf:"max_frame_rate"`

	// FrameBurst is the burst size of the per-source frame limiter.
	FrameBurst int `koanf:"frame_burst"`

	// MaxFrameBytes is the largest WebSocket message accepted from a source.
	MaxFrameBytes int64 `koanf:"max_frame_bytes"`

	// MonitorQueueSize is the per-monitor outbound queue capacity.
	MonitorQueueSize int `koanf:"monitor_queue_size"`
}

// AnalysisConfig configures dispatch to the external analysis services.
type AnalysisConfig struct {
	// MinInterval is the minimum spacing between dispatches of the same
	// non-gaze kind for one source.
	MinInterval time.Duration `koanf:"min_interval"`

	// HealthTimeout bounds the one-time startup health check per service.
	HealthTimeout time.Duration `koanf:"health_timeout"`

	Gaze          ServiceConfig `koanf:"gaze"`
	SyntheticFace ServiceConfig `koanf:"synthetic_face"`
	Identity      ServiceConfig `koanf:"identity"`
}

// ServiceConfig describes one external analysis service.
type ServiceConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// RegisterTimeout bounds reference-image registration calls.
	// Only the identity service accepts registrations.
	RegisterTimeout time.Duration `koanf:"register_timeout"`
}

// AlertsConfig configures optional alert sinks beyond the monitor fan-out.
type AlertsConfig struct {
	Webhook WebhookConfig `koanf:"webhook"`
}

// WebhookConfig configures the generic alert webhook.
type WebhookConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	// Headers are added to every request (e.g., an auth token). YAML only.
	Headers map[string]string `koanf:"headers"`
	// RateLimitMs is the minimum spacing between webhook posts.
	RateLimitMs int `koanf:"rate_limit_ms"`
}

// SecurityConfig holds request throttling and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file:line in each entry.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment (including a .env file if present), then validates it.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
