// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
)

// BreakerSettings tunes the circuit breaker around one analysis service.
type BreakerSettings struct {
	// MinRequests is the number of requests in the window before the ratio is evaluated.
	MinRequests uint32
	// FailureRatio opens the circuit when failures/requests reaches it.
	FailureRatio float64
	// Interval is the closed-state window after which counts reset.
	Interval time.Duration
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests
// and probes again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
	}
}

// CircuitBreakerClient wraps Client with the circuit breaker pattern so a
// failing service is skipped instead of costing one timed-out call per frame.
//
// Health and Stats bypass the breaker: the first runs once at startup and
// the second is an operator request that should report the live error.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client with a breaker named "analysis-<kind>".
func NewCircuitBreakerClient(client *Client, settings BreakerSettings) *CircuitBreakerClient {
	cbName := "analysis-" + client.Kind().String()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= settings.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", cbName).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// Refused registrations and shutdown cancellations say nothing about
		// service health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var regErr *RegistrationError
			return errors.As(err, &regErr) && regErr.Refused
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// Kind returns the analysis kind of the wrapped client.
func (cbc *CircuitBreakerClient) Kind() Kind {
	return cbc.client.Kind()
}

// URL returns the wrapped service base URL.
func (cbc *CircuitBreakerClient) URL() string {
	return cbc.client.URL()
}

// State returns the current breaker state as a string.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

// execute wraps a service call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(op string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			return nil, &AnalysisError{Kind: cbc.client.Kind(), Op: op, Err: fmt.Errorf("%w: %v", ErrCircuitOpen, err)}
		}

		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Health checks the service directly, bypassing the breaker.
func (cbc *CircuitBreakerClient) Health(ctx context.Context) error {
	return cbc.client.Health(ctx)
}

// Stats fetches service statistics directly, bypassing the breaker.
func (cbc *CircuitBreakerClient) Stats(ctx context.Context) (json.RawMessage, error) {
	return cbc.client.Stats(ctx)
}

// Analyze submits a frame with circuit breaker protection.
func (cbc *CircuitBreakerClient) Analyze(ctx context.Context, sourceID uint64, frameData string) (Result, error) {
	result, err := cbc.execute("analyze", func() (interface{}, error) {
		return cbc.client.Analyze(ctx, sourceID, frameData)
	})
	if err != nil {
		return nil, err
	}
	typed, ok := result.(Result)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Register uploads a reference image with circuit breaker protection.
// A rejected call is reported as a *RegistrationError like any other failure.
func (cbc *CircuitBreakerClient) Register(ctx context.Context, sourceID uint64, name, referenceImage string) error {
	_, err := cbc.execute("register", func() (interface{}, error) {
		return nil, cbc.client.Register(ctx, sourceID, name, referenceImage)
	})
	if err == nil {
		return nil
	}
	var regErr *RegistrationError
	if errors.As(err, &regErr) {
		return err
	}
	return &RegistrationError{Reason: "identity service temporarily unavailable", Err: err}
}
