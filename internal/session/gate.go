// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package session

import "time"

// GateStatus is the outcome of a gate acquisition attempt.
type GateStatus int

const (
	// GateAcquired means the caller now owns the single in-flight slot.
	GateAcquired GateStatus = iota
	// GateInFlight means a call for the same (source, kind) is outstanding.
	GateInFlight
	// GateThrottled means the minimum interval since the last dispatch has not elapsed.
	GateThrottled
	// GateClosed means the source was removed.
	GateClosed
)

func (s GateStatus) String() string {
	switch s {
	case GateAcquired:
		return "acquired"
	case GateInFlight:
		return "in_flight"
	case GateThrottled:
		return "throttled"
	case GateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RateGate tracks dispatch state for one (source, kind) pair.
type RateGate struct {
	inFlight       bool
	lastDispatchAt time.Time
}

// tryAcquire checks and claims the gate in one step. A zero minInterval
// disables interval throttling and leaves only in-flight dedup.
func (g *RateGate) tryAcquire(now time.Time, minInterval time.Duration) GateStatus {
	if g.inFlight {
		return GateInFlight
	}
	if minInterval > 0 && !g.lastDispatchAt.IsZero() && now.Sub(g.lastDispatchAt) < minInterval {
		return GateThrottled
	}
	g.inFlight = true
	g.lastDispatchAt = now
	return GateAcquired
}

func (g *RateGate) release() {
	g.inFlight = false
}
