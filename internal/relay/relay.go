// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/detection"
	"github.com/tomtom215/proctorwatch/internal/dispatch"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/session"
	ws "github.com/tomtom215/proctorwatch/internal/websocket"
)

var (
	// ErrSourceNotFound is returned for an id with no live source.
	ErrSourceNotFound = errors.New("source not found")

	// ErrRegistrationInProgress is returned while another registration for
	// the same source is outstanding.
	ErrRegistrationInProgress = errors.New("registration already in progress")
)

// DefaultRegisterTimeout bounds a registration call when none is configured.
const DefaultRegisterTimeout = 10 * time.Second

// Dispatcher accepts frames for analysis and publishes completed results.
type Dispatcher interface {
	Submit(sourceID uint64, kind analysis.Kind, frameData string) dispatch.Decision
	Outcomes() <-chan dispatch.Outcome
}

// Backend reports which analysis kinds are active and provides the
// identity registrar.
type Backend interface {
	Enabled(kind analysis.Kind) bool
	EnabledKinds() []analysis.Kind
	Registrar() (analysis.Registrar, bool)
}

// Config holds relay limits.
type Config struct {
	// MaxFrameRate is the sustained frames per second accepted from one
	// source. Zero disables the limiter.
	MaxFrameRate float64
	FrameBurst   int

	// MaxFrameBytes bounds the data URL of a single frame.
	MaxFrameBytes int64

	MonitorQueueSize int
	RegisterTimeout  time.Duration
}

// ConfigFromConfig extracts relay limits from the application config.
func ConfigFromConfig(cfg *config.Config) Config {
	return Config{
		MaxFrameRate:     cfg.Relay.MaxFrameRate,
		FrameBurst:       cfg.Relay.FrameBurst,
		MaxFrameBytes:    cfg.Relay.MaxFrameBytes,
		MonitorQueueSize: cfg.Relay.MonitorQueueSize,
		RegisterTimeout:  cfg.Analysis.Identity.RegisterTimeout,
	}
}

// Relay owns the participant connections and the monitor fan-out.
type Relay struct {
	cfg        Config
	registry   *session.Registry
	dispatcher Dispatcher
	backend    Backend
	notifiers  *detection.Notifiers
	hub        *ws.Hub
}

// New creates a relay and its hub. notifiers may be nil.
func New(registry *session.Registry, dispatcher Dispatcher, backend Backend, notifiers *detection.Notifiers, cfg Config) *Relay {
	if cfg.RegisterTimeout <= 0 {
		cfg.RegisterTimeout = DefaultRegisterTimeout
	}
	if cfg.MonitorQueueSize <= 0 {
		cfg.MonitorQueueSize = ws.DefaultQueueSize
	}
	if cfg.FrameBurst < 1 {
		cfg.FrameBurst = 1
	}

	r := &Relay{
		cfg:        cfg,
		registry:   registry,
		dispatcher: dispatcher,
		backend:    backend,
		notifiers:  notifiers,
	}
	r.hub = ws.NewHub(r.initialMessages)
	return r
}

// Hub returns the monitor fan-out hub. The caller runs it.
func (r *Relay) Hub() *ws.Hub {
	return r.hub
}

// Sources returns the current source snapshot.
func (r *Relay) Sources() []session.SourceSnapshot {
	return r.registry.ListSources()
}

// SourceDetail returns one live source with its recent analysis history.
func (r *Relay) SourceDetail(sourceID uint64) (session.SourceDetail, error) {
	src, ok := r.registry.Source(sourceID)
	if !ok {
		return session.SourceDetail{}, fmt.Errorf("%w: %d", ErrSourceNotFound, sourceID)
	}
	return src.Detail(), nil
}

// initialMessages is what a monitor receives before any broadcast. It runs
// in the hub loop.
func (r *Relay) initialMessages() []ws.Message {
	msgs := make([]ws.Message, 0, 1+len(analysis.Kinds))
	msgs = append(msgs, r.snapshotMessage())
	for _, kind := range analysis.Kinds {
		msgs = append(msgs, ws.Message{
			Type: ws.TypeServiceStatus,
			Data: ServiceStatusPayload{Kind: kind.String(), Enabled: r.backend.Enabled(kind)},
		})
	}
	return msgs
}

func (r *Relay) snapshotMessage() ws.Message {
	return ws.Message{Type: ws.TypeSnapshot, Data: r.registry.ListSources()}
}

// RunWithContext consumes registry events and dispatcher outcomes until
// ctx is canceled. Designed for use with suture supervision.
func (r *Relay) RunWithContext(ctx context.Context) error {
	events := r.registry.Events()
	outcomes := r.dispatcher.Outcomes()

	logging.Info().Msg("Relay event loop started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Relay event loop stopped")
			return ctx.Err()

		case ev := <-events:
			r.handleEvent(ev)

		case o, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			r.handleOutcome(ctx, o)
		}
	}
}

// handleEvent observes registry lifecycle events. Source membership reaches
// monitors from the connection handlers, so a dropped event never leaves a
// monitor with a stale source list.
func (r *Relay) handleEvent(ev session.Event) {
	switch ev.Type {
	case session.SourceJoined, session.SourceLeft:
		logging.Debug().Str("event", ev.Type.String()).Uint64("source_id", ev.ID).Msg("Source lifecycle event")
	case session.MonitorJoined, session.MonitorLeft:
		logging.Debug().Str("event", ev.Type.String()).Uint64("monitor_id", ev.ID).Msg("Monitor lifecycle event")
	}
}

// handleOutcome publishes a completed analysis. Results for sources that
// left after the call completed are discarded.
func (r *Relay) handleOutcome(ctx context.Context, o dispatch.Outcome) {
	if _, ok := r.registry.Source(o.SourceID); !ok {
		logging.Debug().Uint64("source_id", o.SourceID).Str("kind", o.Kind.String()).
			Msg("Discarding result for departed source")
		return
	}

	r.hub.BroadcastJSON(ws.TypeAnalysisResult, AnalysisResultPayload{
		SourceID:   o.SourceID,
		Name:       o.SourceName,
		Kind:       o.Kind.String(),
		Label:      o.Result.Label(),
		Confidence: o.Result.Confidence(),
		Timestamp:  o.At,
	})

	for i := range o.Alerts {
		r.hub.BroadcastJSON(ws.TypeAlert, o.Alerts[i])
	}

	if len(o.Alerts) > 0 && r.notifiers != nil {
		r.notifiers.Notify(ctx, o.Alerts)
	}
}
