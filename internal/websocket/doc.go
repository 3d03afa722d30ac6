// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package websocket carries the relay's WebSocket traffic.

Key Components:

  - Client: one connection with a read goroutine, a write goroutine and a
    bounded outbound queue. Sends never block; a closed or full queue
    reports failure to the caller.
  - Hub: the monitor fan-out. It owns the set of monitor clients and
    delivers broadcast messages to each monitor's queue.
  - Message / InboundMessage: the {type, data} envelope on the wire.

Architecture:

	            ┌─────────────┐
	broadcast → │     Hub     │ → monitor queues (one per monitor)
	            └─────────────┘
	source client ⇄ relay (direct replies, no hub)

Backpressure:

Each monitor queue has a fixed capacity (monitor_queue_size, default 256).
Frame messages are only enqueued while the queue is below three quarters
full; otherwise that monitor skips the frame and
proctor_fanout_dropped_total{type="frame"} is incremented. Control messages
(snapshot, joins, results, alerts, status) may use the remaining capacity. A
monitor whose queue is completely full when a control message arrives is
evicted and its connection closed.

Registration:

When a monitor registers, the hub calls its initial-message function inside
the hub loop and enqueues the result before the monitor joins the broadcast
set, so the snapshot is the first message the monitor receives.

Thread Safety:

All Hub methods are safe for concurrent use. The broadcast set is only
mutated by the hub loop.
*/
package websocket
