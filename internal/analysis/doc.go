// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package analysis talks to the external frame analysis services.

Three kinds of analysis are supported, each served by an independent HTTP
service:

  - gaze: gaze direction (left, right, center, blinking)
  - synthetic_face: AI-generated or replayed face detection (real, fake, no_face)
  - identity: comparison against a registered reference image (match, no_match, no_face)

# HTTP Contract

Every service exposes:

	GET  /health   -> {"status": "healthy"}
	POST /analyze  <- {"studentId": 3, "frameData": "data:image/jpeg;base64,..."}
	GET  /stats    -> service-defined JSON

The identity service additionally accepts:

	POST /register <- {"studentId": 3, "studentName": "Student 3", "referenceImage": "data:..."}
	               -> {"success": true} | {"success": false, "error": "no face found"}

Analyze responses carry a kind-specific label field (gaze_direction,
ai_detection, face_verification) and a confidence. They are decoded into the
Result sum type: GazeResult, SyntheticFaceResult or IdentityResult.

# Failure Policy

Client performs no retries; callers bound every call with a context deadline.
A deadline miss is reported as ErrAnalysisTimeout, every other failure as
*AnalysisError. CircuitBreakerClient wraps Client with sony/gobreaker so a
failing service is short-circuited instead of absorbing one request per frame.

Services holds the client set for a process. Each configured service is
health-checked once at startup by Probe; a failed check disables that kind
until restart.
*/
package analysis
