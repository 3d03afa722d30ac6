// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable means the kind failed its startup health check,
	// or was never configured, and is disabled for this process.
	ErrServiceUnavailable = errors.New("analysis service unavailable")

	// ErrAnalysisTimeout means a call exceeded its deadline.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrCircuitOpen means the service's circuit breaker rejected the call.
	ErrCircuitOpen = errors.New("analysis circuit open")

	// ErrUnknownKind is returned for a kind name that is not recognized.
	ErrUnknownKind = errors.New("unknown analysis kind")
)

// AnalysisError describes a failed call to an analysis service.
type AnalysisError struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *AnalysisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Kind, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// RegistrationError is returned when a reference image could not be registered.
// Refused is true when the identity service answered and declined the image;
// it is false for transport failures and timeouts.
type RegistrationError struct {
	Reason  string
	Refused bool
	Err     error
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + e.Reason
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// wrapCallError classifies a transport-level error for kind/op.
func wrapCallError(ctx context.Context, kind Kind, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", kind, op, ErrAnalysisTimeout)
	}
	return &AnalysisError{Kind: kind, Op: op, Err: err}
}

// FailureReason maps an analysis error to a short metric label.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAnalysisTimeout):
		return "timeout"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "failure"
	}
}
