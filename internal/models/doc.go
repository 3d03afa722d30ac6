// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

// Package models defines the wire-level data shapes shared across packages:
// API response envelopes, the frame ingress payload, and status summaries.
//
// Types here carry no behavior beyond validation tags; session state lives in
// internal/session and analysis results in internal/analysis.
package models
