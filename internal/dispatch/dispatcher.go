// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/detection"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
	"github.com/tomtom215/proctorwatch/internal/session"
)

// Default per-kind call timeouts.
const (
	DefaultGazeTimeout     = 3 * time.Second
	DefaultAnalysisTimeout = 5 * time.Second
	DefaultMinInterval     = 10 * time.Second
	OutcomeBufferSize      = 256
)

// Backend resolves the analyzer for an enabled kind.
// *analysis.Services implements it.
type Backend interface {
	Analyzer(kind analysis.Kind) (analysis.Analyzer, bool)
}

// Outcome is one completed analysis together with the alerts it raised.
type Outcome struct {
	SourceID   uint64
	SourceName string
	Kind       analysis.Kind
	Result     analysis.Result
	Alerts     []detection.Alert
	At         time.Time
}

// Config tunes the dispatcher.
type Config struct {
	// MinInterval is the minimum spacing between non-gaze calls per source.
	MinInterval time.Duration
	// Timeouts bounds each call by kind; missing kinds use DefaultAnalysisTimeout.
	Timeouts map[analysis.Kind]time.Duration
	// OutcomeBuffer is the capacity of the outcome channel.
	OutcomeBuffer int
}

// ConfigFromAnalysis derives dispatcher settings from the analysis config.
func ConfigFromAnalysis(cfg config.AnalysisConfig) Config {
	return Config{
		MinInterval: cfg.MinInterval,
		Timeouts: map[analysis.Kind]time.Duration{
			analysis.KindGaze:          cfg.Gaze.Timeout,
			analysis.KindSyntheticFace: cfg.SyntheticFace.Timeout,
			analysis.KindIdentity:      cfg.Identity.Timeout,
		},
		OutcomeBuffer: OutcomeBufferSize,
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces time.Now for gate decisions and result timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// Dispatcher runs gated analysis calls.
type Dispatcher struct {
	registry   *session.Registry
	backend    Backend
	correlator *detection.Correlator
	cfg        Config
	now        func() time.Time

	outcomes chan Outcome

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Close must be called to release it.
func NewDispatcher(registry *session.Registry, backend Backend, correlator *detection.Correlator, cfg Config, opts ...Option) *Dispatcher {
	if cfg.OutcomeBuffer <= 0 {
		cfg.OutcomeBuffer = OutcomeBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		registry:   registry,
		backend:    backend,
		correlator: correlator,
		cfg:        cfg,
		now:        time.Now,
		outcomes:   make(chan Outcome, cfg.OutcomeBuffer),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Outcomes returns the channel of completed analyses. It is never closed.
func (d *Dispatcher) Outcomes() <-chan Outcome {
	return d.outcomes
}

// Submit offers one frame for one kind. It never blocks on the call itself.
func (d *Dispatcher) Submit(sourceID uint64, kind analysis.Kind, frameData string) Decision {
	decision := d.submit(sourceID, kind, frameData)
	metrics.RecordDispatchDecision(kind.String(), decision.String())
	return decision
}

func (d *Dispatcher) submit(sourceID uint64, kind analysis.Kind, frameData string) Decision {
	src, ok := d.registry.Source(sourceID)
	if !ok {
		return DecisionSessionVanished
	}
	analyzer, ok := d.backend.Analyzer(kind)
	if !ok {
		return DecisionDisabled
	}
	if kind == analysis.KindIdentity && !src.Registered() {
		return DecisionUnregistered
	}

	interval := d.cfg.MinInterval
	if kind == analysis.KindGaze {
		interval = 0
	}
	switch src.TryAcquire(kind, d.now(), interval) {
	case session.GateInFlight:
		return DecisionInFlight
	case session.GateThrottled:
		return DecisionThrottled
	case session.GateClosed:
		return DecisionSessionVanished
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		src.Release(kind)
		return DecisionDisabled
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(src, kind, analyzer, frameData)
	return DecisionDispatched
}

func (d *Dispatcher) timeout(kind analysis.Kind) time.Duration {
	if t, ok := d.cfg.Timeouts[kind]; ok && t > 0 {
		return t
	}
	if kind == analysis.KindGaze {
		return DefaultGazeTimeout
	}
	return DefaultAnalysisTimeout
}

// run performs one call. The gate is released on every path.
func (d *Dispatcher) run(src *session.Source, kind analysis.Kind, analyzer analysis.Analyzer, frameData string) {
	defer d.wg.Done()
	defer src.Release(kind)
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Uint64("source_id", src.ID).
				Str("kind", kind.String()).
				Str("panic", fmt.Sprint(r)).
				Msg("Recovered panic in analysis dispatch")
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout(kind))
	defer cancel()

	start := time.Now()
	result, err := analyzer.Analyze(ctx, src.ID, frameData)
	metrics.RecordAnalysis(kind.String(), time.Since(start), analysis.FailureReason(err))
	if err != nil {
		if d.ctx.Err() != nil {
			logging.Debug().Uint64("source_id", src.ID).Str("kind", kind.String()).Msg("Analysis abandoned on shutdown")
			return
		}
		logging.Warn().Err(err).Uint64("source_id", src.ID).Str("kind", kind.String()).Msg("Analysis failed, frame skipped")
		return
	}

	at := d.now()
	history, err := d.registry.AppendResult(src.ID, kind, session.HistoryEntry{
		Timestamp:  at,
		Label:      result.Label(),
		Confidence: result.Confidence(),
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionVanished) {
			logging.Debug().Uint64("source_id", src.ID).Str("kind", kind.String()).Msg("Source left before analysis completed")
			return
		}
		logging.Warn().Err(err).Uint64("source_id", src.ID).Msg("Failed to record analysis result")
		return
	}

	alerts := d.correlator.Evaluate(detection.SourceRef{ID: src.ID, Name: src.Name}, result, history, at)
	d.emit(Outcome{
		SourceID:   src.ID,
		SourceName: src.Name,
		Kind:       kind,
		Result:     result,
		Alerts:     alerts,
		At:         at,
	})
}

func (d *Dispatcher) emit(o Outcome) {
	select {
	case d.outcomes <- o:
	default:
		metrics.RecordEventDropped("outcome")
		logging.Warn().Uint64("source_id", o.SourceID).Str("kind", o.Kind.String()).Int("alerts", len(o.Alerts)).
			Msg("Outcome channel full, result dropped")
	}
}

// Close cancels outstanding calls and waits for them to finish. Submit
// returns DecisionDisabled afterwards.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

// RunWithContext blocks until ctx is done, then closes the dispatcher.
// Designed to run under suture supervision.
func (d *Dispatcher) RunWithContext(ctx context.Context) error {
	logging.Info().Msg("Analysis dispatcher started")
	<-ctx.Done()
	logging.Info().Msg("Analysis dispatcher stopping")
	d.Close()
	return ctx.Err()
}
