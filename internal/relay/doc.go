// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package relay connects exam participants to observers.

A source connection creates a session in the registry, receives an
"assigned" message and then streams frames. Monitors learn of the source
through a source-joined broadcast issued before its read loop starts, so
the first frame never overtakes it. A closed source is announced with
source-left from the same handler. Each accepted frame is broadcast
to monitors immediately and submitted to the dispatcher once per enabled
analysis kind. The dispatcher decides on its own whether a call is made; the
frame path never waits for analysis.

A monitor connection joins the fan-out hub. Its first messages are a snapshot
of the connected sources and the enabled state of every analysis kind.

RunWithContext is the relay event loop. It logs registry lifecycle events
and turns dispatcher outcomes into analysis-result and alert broadcasts,
handing alerts to the configured notifiers.

Frame ingress is bounded per source by a token bucket (relay.max_frame_rate)
and by a payload size limit (relay.max_frame_bytes). Rejected frames are
counted in proctor_frames_dropped_total and otherwise ignored.
*/
package relay
