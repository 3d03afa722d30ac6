// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "REGISTRATION_FAILED",
//	    "message": "no face detected in reference image"
//	  },
//	  "metadata": {"timestamp": "2026-03-02T09:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is the error half of the envelope. Details carries
// validation specifics such as the offending field.
//
// Codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Unknown source or service kind
//   - SERVICE_UNAVAILABLE: Analysis service disabled or unreachable
//   - REGISTRATION_FAILED: Identity service refused the reference image
//   - CONFLICT: Registration already running for the source
//   - EXTERNAL_SERVICE_FAILED: Analysis service answered with an error
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - INTERNAL_ERROR: Unexpected failure, logged server side
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
