// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package main is the entry point for the ProctorWatch relay server.

ProctorWatch relays webcam frames from exam takers (sources) to proctors
(monitors), samples them to external analysis services (gaze tracking,
synthetic-face detection, identity verification) and pushes the resulting
alerts to every monitor in real time.

# Application Architecture

	RootSupervisor ("proctorwatch")
	├── AnalysisSupervisor ("analysis-layer")
	│   └── Dispatcher (rate-limited analysis calls)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (monitor fan-out)
	│   └── Relay (lifecycle events and analysis outcomes)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (WebSocket endpoints, REST status API, /metrics)

Startup order:

 1. Configuration: .env preload, then Koanf v2 (defaults, config file, environment)
 2. Logging: zerolog
 3. Analysis services: one health probe per configured service; failures disable the kind
 4. Registry, correlator, dispatcher, notifiers, relay
 5. Supervisor tree; readiness flips once the HTTP listener is bound

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	PORT=3000
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	SHUTDOWN_TIMEOUT=10s

	# Relay limits
	MAX_FRAME_RATE=15            # frames/s per source, 0 disables
	FRAME_BURST=5
	MAX_FRAME_BYTES=1048576
	MONITOR_QUEUE_SIZE=256

	# Analysis services
	ENABLE_GAZE_TRACKING=true
	GAZE_SERVICE_URL=http://localhost:5000
	ENABLE_AI_DETECTION=true
	AI_DETECTION_SERVICE_URL=http://localhost:5001
	ENABLE_FACE_RECOGNITION=true
	FACE_RECOGNITION_SERVICE_URL=http://localhost:5002
	ANALYSIS_MIN_INTERVAL=10s

	# Alerts
	ALERT_WEBHOOK_ENABLED=false
	ALERT_WEBHOOK_URL=https://hooks.example.com/proctor

	# Security
	CORS_ORIGINS=https://proctor.example.com
	RATE_LIMIT_REQUESTS=100
	RATE_LIMIT_WINDOW=1m

# Signal Handling

SIGINT and SIGTERM cancel the root context. Every supervised service then
gets SHUTDOWN_TIMEOUT to stop, and in-flight webhook deliveries are awaited
before exit.
*/
package main
