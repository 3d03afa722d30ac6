// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package dispatch

// Decision is the result of submitting one frame for one kind.
type Decision int

const (
	// DecisionDispatched means a call was started.
	DecisionDispatched Decision = iota
	// DecisionSessionVanished means the source is gone.
	DecisionSessionVanished
	// DecisionDisabled means the kind is not enabled, or the dispatcher is closed.
	DecisionDisabled
	// DecisionUnregistered means identity analysis awaits registration.
	DecisionUnregistered
	// DecisionInFlight means a call for the pair is outstanding.
	DecisionInFlight
	// DecisionThrottled means the minimum interval has not elapsed.
	DecisionThrottled
)

func (d Decision) String() string {
	switch d {
	case DecisionDispatched:
		return "dispatched"
	case DecisionSessionVanished:
		return "session_vanished"
	case DecisionDisabled:
		return "disabled"
	case DecisionUnregistered:
		return "unregistered"
	case DecisionInFlight:
		return "in_flight"
	case DecisionThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}
