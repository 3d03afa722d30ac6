// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package config

import (
	"fmt"
	"time"
)

// Validate checks that the configuration is complete and within bounds.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateRelay(); err != nil {
		return err
	}

	if err := c.validateAnalysis(); err != nil {
		return err
	}

	if err := c.validateAlerts(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validEnvironments defines the allowed server environments
var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// Relay limit bounds
const (
	minFrameBytes     = 16 << 10
	maxFrameBytes     = 16 << 20
	minMonitorQueue   = 8
	maxMonitorQueue   = 65536
	maxFrameRateLimit = 120
)

func (c *Config) validateRelay() error {
	r := c.Relay
	if r.MaxFrameRate < 0 || r.MaxFrameRate > maxFrameRateLimit {
		return fmt.Errorf("MAX_FRAME_RATE must be between 0 and %d", maxFrameRateLimit)
	}
	if r.MaxFrameRate > 0 && r.FrameBurst < 1 {
		return fmt.Errorf("FRAME_BURST must be at least 1 when MAX_FRAME_RATE is set")
	}
	if r.MaxFrameBytes < minFrameBytes || r.MaxFrameBytes > maxFrameBytes {
		return fmt.Errorf("MAX_FRAME_BYTES must be between %d and %d", minFrameBytes, maxFrameBytes)
	}
	if r.MonitorQueueSize < minMonitorQueue || r.MonitorQueueSize > maxMonitorQueue {
		return fmt.Errorf("MONITOR_QUEUE_SIZE must be between %d and %d", minMonitorQueue, maxMonitorQueue)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.MinInterval < 0 {
		return fmt.Errorf("ANALYSIS_MIN_INTERVAL must not be negative")
	}
	if c.Analysis.HealthTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_HEALTH_TIMEOUT must be positive")
	}

	services := []struct {
		name string
		cfg  ServiceConfig
	}{
		{"GAZE_SERVICE_URL", c.Analysis.Gaze},
		{"AI_DETECTION_SERVICE_URL", c.Analysis.SyntheticFace},
		{"FACE_RECOGNITION_SERVICE_URL", c.Analysis.Identity},
	}
	for _, svc := range services {
		if err := validateService(svc.name, svc.cfg); err != nil {
			return err
		}
	}

	if c.Analysis.Identity.Enabled && c.Analysis.Identity.RegisterTimeout <= 0 {
		return fmt.Errorf("FACE_REGISTER_TIMEOUT must be positive")
	}
	return nil
}

// validateService validates one analysis service (only if enabled)
func validateService(fieldName string, svc ServiceConfig) error {
	if !svc.Enabled {
		return nil
	}
	if svc.URL == "" {
		return fmt.Errorf("%s is required when the service is enabled", fieldName)
	}
	if err := validateHTTPURL(svc.URL, fieldName); err != nil {
		return err
	}
	if svc.Timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", fieldName)
	}
	return nil
}

func (c *Config) validateAlerts() error {
	wh := c.Alerts.Webhook
	if !wh.Enabled {
		return nil
	}
	if wh.URL == "" {
		return fmt.Errorf("ALERT_WEBHOOK_URL is required when the alert webhook is enabled")
	}
	if wh.RateLimitMs < 0 {
		return fmt.Errorf("ALERT_WEBHOOK_RATE_LIMIT_MS must not be negative")
	}
	return validateWebhookURL(wh.URL, "ALERT_WEBHOOK_URL")
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS reports whether CORS allows any origin.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
