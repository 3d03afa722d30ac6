// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
)

// ErrSessionVanished is returned when an operation targets a source that
// has been removed, typically by a call that completed after disconnect.
var ErrSessionVanished = errors.New("session vanished")

// EventBufferSize is the default capacity of the lifecycle channel.
const EventBufferSize = 256

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithEventBuffer sets the lifecycle channel capacity.
func WithEventBuffer(size int) Option {
	return func(r *Registry) {
		if size > 0 {
			r.events = make(chan Event, size)
		}
	}
}

// Registry is the arena of sources and monitors.
type Registry struct {
	mu            sync.RWMutex
	sources       map[uint64]*Source
	monitors      map[uint64]*Monitor
	nextSourceID  uint64
	nextMonitorID uint64

	events chan Event
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sources:  make(map[uint64]*Source),
		monitors: make(map[uint64]*Monitor),
		events:   make(chan Event, EventBufferSize),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the lifecycle channel. It is never closed.
func (r *Registry) Events() <-chan Event {
	return r.events
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// CreateSource registers a new source under the next display id.
func (r *Registry) CreateSource() *Source {
	now := r.now()

	r.mu.Lock()
	r.nextSourceID++
	id := r.nextSourceID
	src := newSource(id, uuid.New().String(), fmt.Sprintf("Student %d", id), now)
	r.sources[id] = src
	count := len(r.sources)
	r.mu.Unlock()

	metrics.SourcesConnected.Set(float64(count))
	logging.Info().Uint64("source_id", id).Str("conn_id", src.ConnID).Msg("Source connected")
	r.publish(Event{Type: SourceJoined, ID: id, Source: src.Snapshot(), At: now})
	return src
}

// CreateMonitor registers a new monitor.
func (r *Registry) CreateMonitor() *Monitor {
	now := r.now()

	r.mu.Lock()
	r.nextMonitorID++
	m := &Monitor{ID: r.nextMonitorID, ConnID: uuid.New().String(), ConnectedAt: now}
	r.monitors[m.ID] = m
	count := len(r.monitors)
	r.mu.Unlock()

	metrics.MonitorsConnected.Set(float64(count))
	logging.Info().Uint64("monitor_id", m.ID).Msg("Monitor connected")
	r.publish(Event{Type: MonitorJoined, ID: m.ID, At: now})
	return m
}

// RemoveSource deletes the source, purges its gates and history, and
// publishes SourceLeft. It returns false if the id is unknown.
func (r *Registry) RemoveSource(id uint64) bool {
	r.mu.Lock()
	src, ok := r.sources[id]
	if ok {
		delete(r.sources, id)
	}
	count := len(r.sources)
	r.mu.Unlock()

	if !ok {
		return false
	}
	snap := src.close()
	metrics.SourcesConnected.Set(float64(count))
	logging.Info().Uint64("source_id", id).Msg("Source disconnected")
	r.publish(Event{Type: SourceLeft, ID: id, Source: snap, At: r.now()})
	return true
}

// RemoveMonitor deletes the monitor and publishes MonitorLeft.
func (r *Registry) RemoveMonitor(id uint64) bool {
	r.mu.Lock()
	_, ok := r.monitors[id]
	if ok {
		delete(r.monitors, id)
	}
	count := len(r.monitors)
	r.mu.Unlock()

	if !ok {
		return false
	}
	metrics.MonitorsConnected.Set(float64(count))
	logging.Info().Uint64("monitor_id", id).Msg("Monitor disconnected")
	r.publish(Event{Type: MonitorLeft, ID: id, At: r.now()})
	return true
}

// Source looks up a live source.
func (r *Registry) Source(id uint64) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	return src, ok
}

// ListSources returns snapshots of every live source ordered by id.
func (r *Registry) ListSources() []SourceSnapshot {
	r.mu.RLock()
	sources := make([]*Source, 0, len(r.sources))
	for _, src := range r.sources {
		sources = append(sources, src)
	}
	r.mu.RUnlock()

	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	out := make([]SourceSnapshot, 0, len(sources))
	for _, src := range sources {
		out = append(out, src.Snapshot())
	}
	return out
}

// SourceCount returns the number of live sources.
func (r *Registry) SourceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// MonitorCount returns the number of live monitors.
func (r *Registry) MonitorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.monitors)
}

// MarkRegistered records a successful identity registration. It is one-way.
func (r *Registry) MarkRegistered(id uint64) error {
	src, ok := r.Source(id)
	if !ok {
		return ErrSessionVanished
	}
	return src.markRegistered()
}

// TouchFrame records that a frame from id arrived at the given time.
func (r *Registry) TouchFrame(id uint64, at time.Time) error {
	src, ok := r.Source(id)
	if !ok {
		return ErrSessionVanished
	}
	return src.touch(at)
}

// AppendResult appends entry to the (id, kind) history and returns a copy
// of the buffer after the append.
func (r *Registry) AppendResult(id uint64, kind analysis.Kind, entry HistoryEntry) ([]HistoryEntry, error) {
	src, ok := r.Source(id)
	if !ok {
		return nil, ErrSessionVanished
	}
	return src.appendResult(kind, entry)
}

func (r *Registry) publish(ev Event) {
	select {
	case r.events <- ev:
	default:
		metrics.RecordEventDropped("lifecycle")
		logging.Warn().Str("event", ev.Type.String()).Uint64("id", ev.ID).Msg("Lifecycle channel full, event dropped")
	}
}
