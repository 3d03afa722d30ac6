// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package api exposes the relay over HTTP using the chi router.

Routes:

	GET  /ws/source                          source WebSocket
	GET  /ws/monitor                         monitor WebSocket
	GET  /metrics                            Prometheus exposition
	GET  /api/v1/health/live                 liveness probe
	GET  /api/v1/health/ready                readiness probe
	GET  /api/v1/status                      counts and analysis service state
	GET  /api/v1/sources                     source snapshot
	GET  /api/v1/sources/{id}                one source with per-kind activity
	POST /api/v1/sources/{id}/register       identity registration
	GET  /api/v1/services/status             live health probe of every service
	GET  /api/v1/services/{kind}/stats       analysis service /stats passthrough

Every JSON endpoint answers with models.APIResponse. Errors carry a
machine-readable code:

	VALIDATION_ERROR      malformed id or body
	NOT_FOUND             unknown source or analysis kind
	CONFLICT              registration already running for the source
	REGISTRATION_FAILED   identity service refused or failed (HTTP 422)
	SERVICE_UNAVAILABLE   analysis kind not configured
	EXTERNAL_SERVICE_FAILED  analysis service call failed
	RATE_LIMIT_EXCEEDED   httprate limit hit

WebSocket upgrades check the Origin header against security.cors_origins.
A request without an Origin header is only accepted when the origin list
contains "*".
*/
package api
