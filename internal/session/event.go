// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package session

import "time"

// EventType identifies a lifecycle change.
type EventType int

const (
	SourceJoined EventType = iota + 1
	SourceLeft
	MonitorJoined
	MonitorLeft
)

func (t EventType) String() string {
	switch t {
	case SourceJoined:
		return "source_joined"
	case SourceLeft:
		return "source_left"
	case MonitorJoined:
		return "monitor_joined"
	case MonitorLeft:
		return "monitor_left"
	default:
		return "unknown"
	}
}

// Event is published on the registry's lifecycle channel. For source
// events Source holds the session state at the time of the change.
type Event struct {
	Type   EventType
	ID     uint64
	Source SourceSnapshot
	At     time.Time
}
