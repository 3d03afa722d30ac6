// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package detection

import (
	"context"
	"time"

	"github.com/tomtom215/proctorwatch/internal/analysis"
)

// AlertType identifies the rule that raised an alert.
type AlertType string

const (
	AlertLookingAway             AlertType = "looking_away"
	AlertExcessiveBlinking       AlertType = "excessive_blinking"
	AlertAIGeneratedContent      AlertType = "ai_generated_content"
	AlertRepeatedAIDetection     AlertType = "repeated_ai_detection"
	AlertNoFaceDetected          AlertType = "no_face_detected"
	AlertIdentityMismatch        AlertType = "identity_mismatch"
	AlertRepeatedIdentityFailure AlertType = "repeated_identity_failure"
)

// Severity indicates the severity level of an alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Evidence carries the single measurement that justified an alert. Exactly
// one field is set, depending on the rule.
type Evidence struct {
	// Count is the number of matching results in the window.
	Count *int `json:"count,omitempty"`
	// Duration is the number of consecutive samples in the window.
	Duration *int `json:"duration,omitempty"`
	// Confidence is the score of the triggering result.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Alert is a proctoring alert raised for one source.
type Alert struct {
	SourceID   uint64        `json:"sourceId"`
	SourceName string        `json:"sourceName"`
	Kind       analysis.Kind `json:"kind"`
	Type       AlertType     `json:"alertType"`
	Message    string        `json:"message"`
	Severity   Severity      `json:"severity"`
	Evidence   Evidence      `json:"evidence"`
	Timestamp  time.Time     `json:"timestamp"`
}

// SourceRef identifies the source an alert is raised for.
type SourceRef struct {
	ID   uint64
	Name string
}

// Notifier delivers alerts to an external channel.
type Notifier interface {
	// Send delivers an alert to the notification channel.
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name (e.g., "webhook").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}
