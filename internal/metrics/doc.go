// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package metrics provides Prometheus metrics for the proctoring relay.

All collectors are registered with the default registry through promauto and
exposed at /metrics by the API router:

	curl http://localhost:3000/metrics

# Available Metrics

Sessions and frames:
  - proctor_sources_connected, proctor_monitors_connected
  - proctor_frames_received_total
  - proctor_frames_dropped_total{reason}

Analysis dispatch:
  - proctor_dispatch_decisions_total{kind,decision}
  - proctor_analysis_duration_seconds{kind}
  - proctor_analysis_failures_total{kind,reason}
  - proctor_registrations_total{result}

Correlation and fan-out:
  - proctor_alerts_total{kind,type,severity}
  - proctor_fanout_dropped_total{type}
  - proctor_events_dropped_total{channel}

Transport:
  - websocket_connections{role}, websocket_messages_sent_total,
    websocket_messages_received_total, websocket_errors_total{error_type}
  - circuit_breaker_* for each analysis service
  - api_requests_total, api_request_duration_seconds, api_active_requests
*/
package metrics
