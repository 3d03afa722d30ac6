// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package session

import "time"

// HistoryCapacity is the number of results kept per (source, kind).
const HistoryCapacity = 10

// HistoryEntry is one analysis result as recorded in a history buffer.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
}

// HistoryBuffer is a fixed-capacity FIFO ring. Appending to a full buffer
// evicts the oldest entry. It is not safe for concurrent use; Source guards it.
type HistoryBuffer struct {
	entries []HistoryEntry
	start   int
	size    int
}

// NewHistoryBuffer creates an empty buffer holding at most capacity entries.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &HistoryBuffer{entries: make([]HistoryEntry, capacity)}
}

// Append adds e as the newest entry.
func (b *HistoryBuffer) Append(e HistoryEntry) {
	capacity := len(b.entries)
	if b.size < capacity {
		b.entries[(b.start+b.size)%capacity] = e
		b.size++
		return
	}
	b.entries[b.start] = e
	b.start = (b.start + 1) % capacity
}

// Len returns the number of stored entries.
func (b *HistoryBuffer) Len() int {
	return b.size
}

// Cap returns the buffer capacity.
func (b *HistoryBuffer) Cap() int {
	return len(b.entries)
}

// Snapshot returns a copy of the entries, oldest first.
func (b *HistoryBuffer) Snapshot() []HistoryEntry {
	out := make([]HistoryEntry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.start+i)%len(b.entries)]
	}
	return out
}
