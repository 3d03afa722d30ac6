// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session Metrics
	SourcesConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_sources_connected",
			Help: "Current number of connected source sessions",
		},
	)

	MonitorsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proctor_monitors_connected",
			Help: "Current number of connected monitor sessions",
		},
	)

	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proctor_frames_received_total",
			Help: "Total number of frames received from sources",
		},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_frames_dropped_total",
			Help: "Total number of frames rejected at ingress",
		},
		[]string{"reason"}, // "rate_limited", "invalid"
	)

	// Analysis Dispatch Metrics
	DispatchDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_dispatch_decisions_total",
			Help: "Dispatcher decisions per frame and analysis kind",
		},
		[]string{"kind", "decision"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proctor_analysis_duration_seconds",
			Help:    "Duration of external analysis calls in seconds",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"kind"},
	)

	AnalysisFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_analysis_failures_total",
			Help: "Total number of failed analysis calls",
		},
		[]string{"kind", "reason"}, // reason: "timeout", "failure", "circuit_open"
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_registrations_total",
			Help: "Identity reference registrations by outcome",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Correlation and Fan-out Metrics
	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_alerts_total",
			Help: "Total number of alerts raised by the correlator",
		},
		[]string{"kind", "type", "severity"},
	)

	FanoutDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_fanout_dropped_total",
			Help: "Messages skipped for a monitor because its queue was full",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_events_dropped_total",
			Help: "Internal events dropped because the consumer channel was full",
		},
		[]string{"channel"}, // "lifecycle", "outcome", "notifier"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"role"},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDispatchDecision counts one dispatcher decision for a kind.
func RecordDispatchDecision(kind, decision string) {
	DispatchDecisions.WithLabelValues(kind, decision).Inc()
}

// RecordAnalysis records the latency of an analysis call and, on failure,
// the failure reason.
func RecordAnalysis(kind string, duration time.Duration, failureReason string) {
	AnalysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if failureReason != "" {
		AnalysisFailures.WithLabelValues(kind, failureReason).Inc()
	}
}

// RecordRegistration counts a reference registration attempt.
func RecordRegistration(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	Registrations.WithLabelValues(result).Inc()
}

// RecordAlert counts an alert raised by the correlator.
func RecordAlert(kind, alertType, severity string) {
	AlertsRaised.WithLabelValues(kind, alertType, severity).Inc()
}

// RecordFrameDropped counts a frame rejected at ingress.
func RecordFrameDropped(reason string) {
	FramesDropped.WithLabelValues(reason).Inc()
}

// RecordFanoutDrop counts a message skipped for a slow monitor.
func RecordFanoutDrop(messageType string) {
	FanoutDropped.WithLabelValues(messageType).Inc()
}

// RecordEventDropped counts an internal event lost to a full channel.
func RecordEventDropped(channel string) {
	EventsDropped.WithLabelValues(channel).Inc()
}
