// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package detection

import (
	"time"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/metrics"
	"github.com/tomtom215/proctorwatch/internal/session"
)

// Correlator evaluates the rule table against a result and its history.
// It holds no per-source state and is safe for concurrent use.
type Correlator struct {
	rules map[analysis.Kind][]Rule
}

// NewCorrelator builds a correlator over rules, or DefaultRules when nil.
func NewCorrelator(rules []Rule) *Correlator {
	if rules == nil {
		rules = DefaultRules
	}
	c := &Correlator{rules: make(map[analysis.Kind][]Rule)}
	for _, r := range rules {
		c.rules[r.Kind] = append(c.rules[r.Kind], r)
	}
	return c
}

// Evaluate returns every alert raised by result. history is the (source,
// kind) buffer after result was appended, oldest first.
func (c *Correlator) Evaluate(src SourceRef, result analysis.Result, history []session.HistoryEntry, at time.Time) []Alert {
	var kind analysis.Kind
	switch result.(type) {
	case analysis.GazeResult:
		kind = analysis.KindGaze
	case analysis.SyntheticFaceResult:
		kind = analysis.KindSyntheticFace
	case analysis.IdentityResult:
		kind = analysis.KindIdentity
	default:
		return nil
	}

	newest := result.Label()
	var alerts []Alert
	for _, rule := range c.rules[kind] {
		if !rule.hasLabel(newest) {
			continue
		}
		var evidence Evidence
		if rule.Window == 0 {
			conf := result.Confidence()
			evidence.Confidence = &conf
		} else {
			n := countMatches(rule, history)
			if n < rule.Threshold {
				continue
			}
			switch rule.evidence {
			case evidenceDuration:
				evidence.Duration = &n
			default:
				evidence.Count = &n
			}
		}

		alert := Alert{
			SourceID:   src.ID,
			SourceName: src.Name,
			Kind:       kind,
			Type:       rule.Type,
			Message:    rule.format(src.Name),
			Severity:   rule.Severity,
			Evidence:   evidence,
			Timestamp:  at,
		}
		metrics.RecordAlert(kind.String(), string(rule.Type), string(rule.Severity))
		alerts = append(alerts, alert)
	}
	return alerts
}

// countMatches counts rule labels over the newest min(Window, len) entries.
func countMatches(rule Rule, history []session.HistoryEntry) int {
	start := len(history) - rule.Window
	if start < 0 {
		start = 0
	}
	n := 0
	for _, e := range history[start:] {
		if rule.hasLabel(e.Label) {
			n++
		}
	}
	return n
}
