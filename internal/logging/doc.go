// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

// Package logging provides the process-wide zerolog logger for ProctorWatch.
//
// All packages log through the global accessors rather than holding their own
// logger instances:
//
//	logging.Info().Uint64("source_id", id).Msg("Source connected")
//	logging.Warn().Err(err).Str("kind", kind.String()).Msg("Analysis failed")
//
// Request-scoped logging picks up correlation and request ids stored in the
// context by the HTTP middleware:
//
//	logging.Ctx(ctx).Info().Msg("Registration requested")
//
// Every entry carries "service":"proctorwatch". Per-connection loggers add
// a component and, for sources, the source id:
//
//	log := logging.WithSource("relay", src.ID)
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # slog Integration
//
// Suture v4 logs through sutureslog, which requires a *slog.Logger.
// NewSlogLogger returns one backed by the same zerolog output:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// # Testing
//
// Tests silence output from an init function:
//
//	func init() {
//	    logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
//	}
package logging
