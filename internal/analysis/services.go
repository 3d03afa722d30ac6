// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/models"
)

// Services is the set of analysis clients for one process together with
// the enabled state of each kind.
//
// A kind is enabled only if it is configured and passed its startup health
// check. Enabled state never flips back to true once cleared.
type Services struct {
	mu      sync.RWMutex
	clients map[Kind]*CircuitBreakerClient
	enabled map[Kind]bool
	probed  bool
}

// NewServices builds breaker-wrapped clients for every configured kind.
// Kinds are not enabled until Probe succeeds for them.
func NewServices(cfg config.AnalysisConfig, breaker BreakerSettings) *Services {
	s := &Services{
		clients: make(map[Kind]*CircuitBreakerClient),
		enabled: make(map[Kind]bool),
	}
	for kind, svc := range serviceConfigs(cfg) {
		if !svc.Enabled || svc.URL == "" {
			continue
		}
		s.clients[kind] = NewCircuitBreakerClient(NewClient(kind, svc.URL), breaker)
	}
	return s
}

func serviceConfigs(cfg config.AnalysisConfig) map[Kind]config.ServiceConfig {
	return map[Kind]config.ServiceConfig{
		KindGaze:          cfg.Gaze,
		KindSyntheticFace: cfg.SyntheticFace,
		KindIdentity:      cfg.Identity,
	}
}

// Probe health-checks every configured service once, concurrently, each
// bounded by timeout. Healthy kinds become enabled; the returned map holds
// the error for each kind that failed (wrapping ErrServiceUnavailable).
// Subsequent calls are no-ops returning nil.
func (s *Services) Probe(ctx context.Context, timeout time.Duration) map[Kind]error {
	s.mu.Lock()
	if s.probed {
		s.mu.Unlock()
		return nil
	}
	s.probed = true
	clients := make(map[Kind]*CircuitBreakerClient, len(s.clients))
	for k, c := range s.clients {
		clients[k] = c
	}
	s.mu.Unlock()

	type probeResult struct {
		kind Kind
		err  error
	}
	results := make(chan probeResult, len(clients))
	var wg sync.WaitGroup
	for kind, client := range clients {
		wg.Add(1)
		go func(kind Kind, client *CircuitBreakerClient) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results <- probeResult{kind: kind, err: client.Health(probeCtx)}
		}(kind, client)
	}
	wg.Wait()
	close(results)

	failures := make(map[Kind]error)
	s.mu.Lock()
	defer s.mu.Unlock()
	for r := range results {
		if r.err != nil {
			failures[r.kind] = fmt.Errorf("%w: %s: %v", ErrServiceUnavailable, r.kind, r.err)
			logging.Warn().Err(r.err).Str("kind", r.kind.String()).Str("url", clients[r.kind].URL()).
				Msg("Analysis service failed health check, disabled until restart")
			continue
		}
		s.enabled[r.kind] = true
		logging.Info().Str("kind", r.kind.String()).Str("url", clients[r.kind].URL()).Msg("Analysis service enabled")
	}
	return failures
}

// Enabled reports whether kind is active for this process.
func (s *Services) Enabled(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled[kind]
}

// EnabledKinds returns the active kinds in dispatch order.
func (s *Services) EnabledKinds() []Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]Kind, 0, len(s.enabled))
	for _, k := range Kinds {
		if s.enabled[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Client returns the client for an enabled kind.
func (s *Services) Client(kind Kind) (*CircuitBreakerClient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.enabled[kind] {
		return nil, false
	}
	c, ok := s.clients[kind]
	return c, ok
}

// Analyzer returns the analysis backend for an enabled kind.
func (s *Services) Analyzer(kind Kind) (Analyzer, bool) {
	c, ok := s.Client(kind)
	if !ok {
		return nil, false
	}
	return c, true
}

// Registrar returns the identity client when identity verification is enabled.
func (s *Services) Registrar() (Registrar, bool) {
	c, ok := s.Client(KindIdentity)
	if !ok {
		return nil, false
	}
	return c, true
}

// States reports the enabled state and URL of every kind.
func (s *Services) States() map[Kind]models.ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[Kind]models.ServiceState, len(Kinds))
	for _, k := range Kinds {
		state := models.ServiceState{Enabled: s.enabled[k]}
		if c, ok := s.clients[k]; ok {
			state.URL = c.URL()
		}
		states[k] = state
	}
	return states
}

// LiveHealth probes every configured service now, without changing enabled
// state. Unconfigured kinds are reported as unhealthy with no URL.
func (s *Services) LiveHealth(ctx context.Context, timeout time.Duration) []models.ServiceHealth {
	s.mu.RLock()
	clients := make(map[Kind]*CircuitBreakerClient, len(s.clients))
	enabled := make(map[Kind]bool, len(s.enabled))
	for k, c := range s.clients {
		clients[k] = c
	}
	for k, v := range s.enabled {
		enabled[k] = v
	}
	s.mu.RUnlock()

	out := make([]models.ServiceHealth, len(Kinds))
	var wg sync.WaitGroup
	for i, kind := range Kinds {
		out[i] = models.ServiceHealth{Kind: kind.String(), Enabled: enabled[kind], CheckedAt: time.Now().UTC()}
		client, ok := clients[kind]
		if !ok {
			out[i].Error = "not configured"
			continue
		}
		out[i].URL = client.URL()

		wg.Add(1)
		go func(h *models.ServiceHealth, client *CircuitBreakerClient) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := client.Health(probeCtx)
			h.LatencyMS = time.Since(start).Milliseconds()
			h.Healthy = err == nil
			if err != nil {
				h.Error = err.Error()
			}
		}(&out[i], client)
	}
	wg.Wait()
	return out
}

// Stats proxies GET /stats for a configured kind, enabled or not.
func (s *Services) Stats(ctx context.Context, kind Kind) (json.RawMessage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	s.mu.RLock()
	client, ok := s.clients[kind]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not configured", ErrServiceUnavailable, kind)
	}
	return client.Stats(ctx)
}
