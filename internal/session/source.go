// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package session

import (
	"sync"
	"time"

	"github.com/tomtom215/proctorwatch/internal/analysis"
)

// Source is one connected exam participant.
//
// ID, ConnID, Name and ConnectedAt are immutable. Everything else is guarded
// by mu and is only reachable through methods.
type Source struct {
	ID          uint64
	ConnID      string
	Name        string
	ConnectedAt time.Time

	mu            sync.Mutex
	closed        bool
	registered    bool
	registering   bool
	lastFrameAt   time.Time
	framesRelayed uint64
	history       map[analysis.Kind]*HistoryBuffer
	gates         map[analysis.Kind]*RateGate
}

// SourceSnapshot is a point-in-time copy of a source, safe to publish.
type SourceSnapshot struct {
	ID          uint64     `json:"sourceId"`
	Name        string     `json:"name"`
	ConnectedAt time.Time  `json:"connectedAt"`
	Registered  bool       `json:"registered"`
	LastFrameAt *time.Time `json:"lastFrameAt,omitempty"`
	Frames      uint64     `json:"frames"`
}

// KindActivity is the analysis state of one kind for a source.
type KindActivity struct {
	Kind     string         `json:"kind"`
	InFlight bool           `json:"inFlight"`
	History  []HistoryEntry `json:"history"`
}

// SourceDetail is a source snapshot with its per-kind analysis activity.
type SourceDetail struct {
	SourceSnapshot
	Analysis []KindActivity `json:"analysis"`
}

func newSource(id uint64, connID, name string, now time.Time) *Source {
	s := &Source{
		ID:          id,
		ConnID:      connID,
		Name:        name,
		ConnectedAt: now,
		history:     make(map[analysis.Kind]*HistoryBuffer, len(analysis.Kinds)),
		gates:       make(map[analysis.Kind]*RateGate, len(analysis.Kinds)),
	}
	for _, k := range analysis.Kinds {
		s.history[k] = NewHistoryBuffer(HistoryCapacity)
		s.gates[k] = &RateGate{}
	}
	return s
}

// Snapshot copies the current state of the source.
func (s *Source) Snapshot() SourceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Source) snapshotLocked() SourceSnapshot {
	snap := SourceSnapshot{
		ID:          s.ID,
		Name:        s.Name,
		ConnectedAt: s.ConnectedAt,
		Registered:  s.registered,
		Frames:      s.framesRelayed,
	}
	if !s.lastFrameAt.IsZero() {
		t := s.lastFrameAt
		snap.LastFrameAt = &t
	}
	return snap
}

// Registered reports whether identity registration has succeeded.
func (s *Source) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

// Closed reports whether the source has been removed from the registry.
func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// TryAcquire claims the (source, kind) dispatch gate if it is free and the
// minimum interval has elapsed. The check and the claim happen under one lock.
func (s *Source) TryAcquire(kind analysis.Kind, now time.Time, minInterval time.Duration) GateStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return GateClosed
	}
	gate, ok := s.gates[kind]
	if !ok {
		return GateClosed
	}
	return gate.tryAcquire(now, minInterval)
}

// Release frees the (source, kind) gate. Releasing after removal is a no-op.
func (s *Source) Release(kind analysis.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gate, ok := s.gates[kind]; ok {
		gate.release()
	}
}

// InFlight reports whether a call for kind is outstanding.
func (s *Source) InFlight(kind analysis.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate, ok := s.gates[kind]
	return ok && gate.inFlight
}

// History returns a copy of the kind's history, oldest first.
func (s *Source) History(kind analysis.Kind) []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.history[kind]; ok {
		return buf.Snapshot()
	}
	return nil
}

// Detail returns the snapshot and the activity of every analysis kind.
// The kinds are read one at a time, not as a single atomic view.
func (s *Source) Detail() SourceDetail {
	d := SourceDetail{
		SourceSnapshot: s.Snapshot(),
		Analysis:       make([]KindActivity, 0, len(analysis.Kinds)),
	}
	for _, kind := range analysis.Kinds {
		history := s.History(kind)
		if history == nil {
			history = []HistoryEntry{}
		}
		d.Analysis = append(d.Analysis, KindActivity{
			Kind:     kind.String(),
			InFlight: s.InFlight(kind),
			History:  history,
		})
	}
	return d
}

// BeginRegistration claims the single registration slot. It returns false
// when a registration is already outstanding or the source is gone.
func (s *Source) BeginRegistration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.registering {
		return false
	}
	s.registering = true
	return true
}

// EndRegistration frees the registration slot.
func (s *Source) EndRegistration() {
	s.mu.Lock()
	s.registering = false
	s.mu.Unlock()
}

func (s *Source) markRegistered() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionVanished
	}
	s.registered = true
	return nil
}

func (s *Source) touch(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionVanished
	}
	s.lastFrameAt = at
	s.framesRelayed++
	return nil
}

func (s *Source) appendResult(kind analysis.Kind, entry HistoryEntry) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionVanished
	}
	buf, ok := s.history[kind]
	if !ok {
		return nil, ErrSessionVanished
	}
	buf.Append(entry)
	return buf.Snapshot(), nil
}

// close marks the source removed and drops its gates and history.
func (s *Source) close() SourceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	s.closed = true
	s.history = nil
	s.gates = nil
	return snap
}

// Monitor is one connected observer.
type Monitor struct {
	ID          uint64
	ConnID      string
	ConnectedAt time.Time
}
