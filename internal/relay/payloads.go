// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package relay

import "time"

// AssignedPayload tells a source which id and name it was given.
type AssignedPayload struct {
	SourceID uint64 `json:"sourceId"`
	Name     string `json:"name"`
}

// SourceLeftPayload announces a disconnected source.
type SourceLeftPayload struct {
	SourceID uint64 `json:"sourceId"`
	Name     string `json:"name"`
}

// FramePayload is a relayed frame.
type FramePayload struct {
	SourceID  uint64    `json:"sourceId"`
	Name      string    `json:"name"`
	Frame     string    `json:"frame"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisResultPayload is one completed analysis.
type AnalysisResultPayload struct {
	SourceID   uint64    `json:"sourceId"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// ServiceStatusPayload reports whether an analysis kind is active.
type ServiceStatusPayload struct {
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}
