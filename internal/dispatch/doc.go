// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

// Package dispatch forwards frames to analysis services under a per
// (source, kind) gate: at most one call in flight, and for every kind except
// gaze no call sooner than the minimum interval after the previous one.
// Frames that cannot be dispatched are skipped, never queued.
//
// Completed calls are appended to the source history, correlated into
// alerts and published as Outcome values on a buffered channel.
package dispatch
