// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package models

import "time"

// StatusSummary is the relay status surface.
type StatusSummary struct {
	Sources  int                     `json:"sources"`
	Monitors int                     `json:"monitors"`
	Services map[string]ServiceState `json:"services"`
	Uptime   string                  `json:"uptime,omitempty"`
}

// ServiceState reports whether an analysis kind is active for this process.
type ServiceState struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
}

// ServiceHealth is the result of a live health probe against one analysis service.
type ServiceHealth struct {
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	Enabled   bool      `json:"enabled"`
	Healthy   bool      `json:"healthy"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
