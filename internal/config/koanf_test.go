// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Analysis.MinInterval != 10*time.Second {
		t.Errorf("Analysis.MinInterval = %v, want 10s", cfg.Analysis.MinInterval)
	}
	if cfg.Analysis.Gaze.Timeout != 3*time.Second {
		t.Errorf("Gaze.Timeout = %v, want 3s", cfg.Analysis.Gaze.Timeout)
	}
	if cfg.Analysis.SyntheticFace.Timeout != 5*time.Second {
		t.Errorf("SyntheticFace.Timeout = %v, want 5s", cfg.Analysis.SyntheticFace.Timeout)
	}
	if cfg.Analysis.Identity.Timeout != 5*time.Second {
		t.Errorf("Identity.Timeout = %v, want 5s", cfg.Analysis.Identity.Timeout)
	}
	if cfg.Analysis.Gaze.URL != "http://localhost:5000" {
		t.Errorf("Gaze.URL = %q", cfg.Analysis.Gaze.URL)
	}
	if cfg.Analysis.SyntheticFace.URL != "http://localhost:5001" {
		t.Errorf("SyntheticFace.URL = %q", cfg.Analysis.SyntheticFace.URL)
	}
	if cfg.Relay.MonitorQueueSize != 256 {
		t.Errorf("Relay.MonitorQueueSize = %d, want 256", cfg.Relay.MonitorQueueSize)
	}
	if cfg.Alerts.Webhook.Enabled {
		t.Error("Alerts.Webhook.Enabled should be false by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PORT", "server.port"},
		{"HTTP_PORT", "server.port"},
		{"GAZE_SERVICE_URL", "analysis.gaze.url"},
		{"ENABLE_GAZE_TRACKING", "analysis.gaze.enabled"},
		{"AI_DETECTION_SERVICE_URL", "analysis.synthetic_face.url"},
		{"ENABLE_AI_DETECTION", "analysis.synthetic_face.enabled"},
		{"FACE_RECOGNITION_SERVICE_URL", "analysis.identity.url"},
		{"ENABLE_FACE_RECOGNITION", "analysis.identity.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	chdirForTest(t, tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("server: {}"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server: {}"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("PORT", "9000")
	t.Setenv("GAZE_SERVICE_URL", "http://gaze.internal:7000")
	t.Setenv("ENABLE_AI_DETECTION", "false")
	t.Setenv("ANALYSIS_MIN_INTERVAL", "15s")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Analysis.Gaze.URL != "http://gaze.internal:7000" {
		t.Errorf("Gaze.URL = %q", cfg.Analysis.Gaze.URL)
	}
	if cfg.Analysis.SyntheticFace.Enabled {
		t.Error("SyntheticFace.Enabled = true, want false")
	}
	if cfg.Analysis.MinInterval != 15*time.Second {
		t.Errorf("MinInterval = %v, want 15s", cfg.Analysis.MinInterval)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Defaults remain for unset values
	if cfg.Analysis.Identity.URL != "http://localhost:5002" {
		t.Errorf("Identity.URL = %q, want default", cfg.Analysis.Identity.URL)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	chdirForTest(t, tmpDir)

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"
analysis:
  gaze:
    enabled: false
  identity:
    url: "http://faces:6000"
alerts:
  webhook:
    enabled: true
    url: "https://hooks.example.com/proctor?token=x"
logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "proctor.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Analysis.Gaze.Enabled {
		t.Error("Gaze.Enabled = true, want false from file")
	}
	if cfg.Analysis.Identity.URL != "http://faces:6000" {
		t.Errorf("Identity.URL = %q", cfg.Analysis.Identity.URL)
	}
	if !cfg.Alerts.Webhook.Enabled {
		t.Error("Webhook should be enabled from file")
	}
	// Env overrides file
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidationFailure(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("GAZE_SERVICE_URL", "ftp://gaze")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for ftp scheme")
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	chdirForTest(t, tmpDir)

	t.Run("missing file is not an error", func(t *testing.T) {
		t.Setenv(DotEnvPathEnvVar, "")
		if err := LoadDotEnv(); err != nil {
			t.Errorf("LoadDotEnv() error = %v", err)
		}
	})

	t.Run("file populates unset variables", func(t *testing.T) {
		envPath := filepath.Join(tmpDir, "test.env")
		if err := os.WriteFile(envPath, []byte("PROCTOR_TEST_DOTENV=from-file\n"), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}
		t.Setenv(DotEnvPathEnvVar, envPath)
		t.Setenv("PROCTOR_TEST_DOTENV", "")
		os.Unsetenv("PROCTOR_TEST_DOTENV")

		if err := LoadDotEnv(); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}
		if got := os.Getenv("PROCTOR_TEST_DOTENV"); got != "from-file" {
			t.Errorf("PROCTOR_TEST_DOTENV = %q, want from-file", got)
		}
	})
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent to testing.T.Chdir, Go 1.24+).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
