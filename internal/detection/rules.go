// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package detection

import (
	"fmt"

	"github.com/tomtom215/proctorwatch/internal/analysis"
)

// evidenceKind selects which Evidence field a rule fills.
type evidenceKind int

const (
	evidenceCount evidenceKind = iota
	evidenceDuration
	evidenceConfidence
)

// Rule is one row of the correlation table.
//
// A rule with Window == 0 matches on the current result only. Otherwise it
// matches when at least Threshold of the newest Window entries carry one of
// Labels.
type Rule struct {
	Kind      analysis.Kind
	Type      AlertType
	Severity  Severity
	Labels    []string
	Window    int
	Threshold int
	evidence  evidenceKind
	message   string
}

func (r Rule) hasLabel(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (r Rule) format(name string) string {
	return fmt.Sprintf(r.message, name)
}

// DefaultRules is the proctoring rule table.
var DefaultRules = []Rule{
	{
		Kind: analysis.KindGaze, Type: AlertLookingAway, Severity: SeverityWarning,
		Labels: []string{analysis.GazeLeft, analysis.GazeRight}, Window: 5, Threshold: 5,
		evidence: evidenceDuration, message: "%s has been looking away from screen",
	},
	{
		Kind: analysis.KindGaze, Type: AlertExcessiveBlinking, Severity: SeverityInfo,
		Labels: []string{analysis.GazeBlinking}, Window: 50, Threshold: 50,
		evidence: evidenceDuration, message: "%s may be experiencing fatigue",
	},
	{
		Kind: analysis.KindSyntheticFace, Type: AlertAIGeneratedContent, Severity: SeverityDanger,
		Labels:   []string{analysis.SyntheticFake},
		evidence: evidenceConfidence, message: "%s - AI generated content detected",
	},
	{
		Kind: analysis.KindSyntheticFace, Type: AlertRepeatedAIDetection, Severity: SeverityDanger,
		Labels: []string{analysis.SyntheticFake}, Window: 3, Threshold: 2,
		evidence: evidenceCount, message: "%s - Multiple AI detections in sequence",
	},
	{
		Kind: analysis.KindSyntheticFace, Type: AlertNoFaceDetected, Severity: SeverityWarning,
		Labels: []string{analysis.SyntheticNoFace}, Window: 3, Threshold: 3,
		evidence: evidenceCount, message: "%s - Face not visible for AI detection",
	},
	{
		Kind: analysis.KindIdentity, Type: AlertIdentityMismatch, Severity: SeverityDanger,
		Labels:   []string{analysis.IdentityNoMatch},
		evidence: evidenceConfidence, message: "%s - Face does not match registered reference",
	},
	{
		Kind: analysis.KindIdentity, Type: AlertRepeatedIdentityFailure, Severity: SeverityDanger,
		Labels: []string{analysis.IdentityNoMatch}, Window: 3, Threshold: 2,
		evidence: evidenceCount, message: "%s - Repeated identity verification failures",
	},
	{
		Kind: analysis.KindIdentity, Type: AlertNoFaceDetected, Severity: SeverityWarning,
		Labels: []string{analysis.IdentityNoFace}, Window: 3, Threshold: 3,
		evidence: evidenceCount, message: "%s - Face not visible for identity verification",
	},
}
