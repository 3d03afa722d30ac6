// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

// Package services adapts the relay's long-running components to
// suture.Service.
//
// RunnerService wraps anything with a RunWithContext loop: the dispatcher,
// the websocket hub and the relay. HTTPServerService binds a listener and
// drives an *http.Server with graceful shutdown.
//
// The wrappers depend on small interfaces, not on the wrapped packages, so
// this package imports nothing from internal/.
package services
