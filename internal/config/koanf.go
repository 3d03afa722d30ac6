// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/proctorwatch/config.yaml",
	"/etc/proctorwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the location of the optional .env file.
const DotEnvPathEnvVar = "DOTENV_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Relay: RelayConfig{
			MaxFrameRate:     15,
			FrameBurst:       5,
			MaxFrameBytes:    1 << 20,
			MonitorQueueSize: 256,
		},
		Analysis: AnalysisConfig{
			MinInterval:   10 * time.Second,
			HealthTimeout: 5 * time.Second,
			Gaze: ServiceConfig{
				Enabled: true,
				URL:     "http://localhost:5000",
				Timeout: 3 * time.Second,
			},
			SyntheticFace: ServiceConfig{
				Enabled: true,
				URL:     "http://localhost:5001",
				Timeout: 5 * time.Second,
			},
			Identity: ServiceConfig{
				Enabled:         true,
				URL:             "http://localhost:5002",
				Timeout:         5 * time.Second,
				RegisterTimeout: 10 * time.Second,
			},
		},
		Alerts: AlertsConfig{
			Webhook: WebhookConfig{
				Enabled:     false,
				RateLimitMs: 1000,
			},
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already present in the environment are not overwritten.
func LoadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults
//  2. Config File (if exists)
//  3. Environment Variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// GAZE_SERVICE_URL -> analysis.gaze.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// The analysis service names match the ones used by existing deployments.
var envMappings = map[string]string{
	// Server
	"port":             "server.port",
	"http_port":        "server.port",
	"http_host":        "server.host",
	"server_timeout":   "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Relay limits
	"max_frame_rate":     "relay.max_frame_rate",
	"frame_burst":        "relay.frame_burst",
	"max_frame_bytes":    "relay.max_frame_bytes",
	"monitor_queue_size": "relay.monitor_queue_size",

	// Analysis dispatch
	"analysis_min_interval":   "analysis.min_interval",
	"analysis_health_timeout": "analysis.health_timeout",

	// Gaze tracking service
	"enable_gaze_tracking": "analysis.gaze.enabled",
	"gaze_service_url":     "analysis.gaze.url",
	"gaze_timeout":         "analysis.gaze.timeout",

	// Synthetic-face (AI-generated content) detection service
	"enable_ai_detection":      "analysis.synthetic_face.enabled",
	"ai_detection_service_url": "analysis.synthetic_face.url",
	"ai_detection_timeout":     "analysis.synthetic_face.timeout",

	// Identity verification service
	"enable_face_recognition":      "analysis.identity.enabled",
	"face_recognition_service_url": "analysis.identity.url",
	"face_recognition_timeout":     "analysis.identity.timeout",
	"face_register_timeout":        "analysis.identity.register_timeout",

	// Alert webhook
	"alert_webhook_enabled":       "alerts.webhook.enabled",
	"alert_webhook_url":           "alerts.webhook.url",
	"alert_webhook_rate_limit_ms": "alerts.webhook.rate_limit_ms",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped so that unrelated environment
// variables cannot pollute the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
