// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package models

// Frame is one captured video frame pushed by a source.
//
// DataURL carries an encoded image ("data:image/jpeg;base64,..."). It is
// relayed to monitors unchanged and forwarded as-is to analysis services.
// Timestamp is the capture time reported by the source in Unix milliseconds.
type Frame struct {
	DataURL   string  `json:"dataUrl" validate:"required,dataurl"`
	Width     int     `json:"width" validate:"gte=0,lte=8192"`
	Height    int     `json:"height" validate:"gte=0,lte=8192"`
	Timestamp int64   `json:"timestamp" validate:"gte=0"`
	Quality   float64 `json:"quality,omitempty" validate:"gte=0,lte=1"`
	SizeKB    float64 `json:"sizeKB,omitempty" validate:"gte=0"`
}

// RegistrationRequest submits the reference image used for identity verification.
type RegistrationRequest struct {
	ReferenceImage string `json:"referenceImage" validate:"required,dataurl"`
}

// RegistrationResult reports the outcome of a registration to the requesting source.
type RegistrationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
