// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package session is the in-memory arena of connected sources and monitors.

Sources are keyed by a sequential display id that starts at 1 and is never
reused within a process. Each source owns a bounded result history and a
dispatch gate per analysis kind. All per-source mutation is serialized by the
source's own mutex; the arena maps are guarded by an RWMutex.

Lifecycle changes are published as Event values on a buffered channel:

	reg := session.NewRegistry()
	go func() {
		for ev := range reg.Events() {
			switch ev.Type {
			case session.SourceJoined:
				// ...
			}
		}
	}()

Sends never block. When the channel is full the event is dropped and
proctor_events_dropped_total{channel="lifecycle"} is incremented.
*/
package session
