// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package detection

import (
	"context"
	"sync"

	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
)

// DefaultNotifierQueueSize is the per-notifier backlog used when none is set.
const DefaultNotifierQueueSize = 64

// NotifiersOption configures a Notifiers set.
type NotifiersOption func(*Notifiers)

// WithNotifierQueueSize sets the backlog each notifier may accumulate
// before alerts are dropped.
func WithNotifierQueueSize(size int) NotifiersOption {
	return func(s *Notifiers) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// notifierWorker delivers alerts to one notifier, one at a time.
type notifierWorker struct {
	notifier Notifier
	queue    chan Alert
}

// Notifiers fans alerts out to registered notifiers. Each enabled notifier
// has a bounded queue drained by a single goroutine; alerts that do not fit
// are dropped.
type Notifiers struct {
	mu        sync.RWMutex
	notifiers []Notifier
	workers   []*notifierWorker
	queueSize int
	closed    bool

	sendCtx    context.Context
	cancelSend context.CancelFunc
	wg         sync.WaitGroup
}

// NewNotifiers creates an empty notifier set.
func NewNotifiers(opts ...NotifiersOption) *Notifiers {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Notifiers{
		queueSize:  DefaultNotifierQueueSize,
		sendCtx:    ctx,
		cancelSend: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a notifier and, if it is enabled, starts its worker.
func (s *Notifiers) Register(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		logging.Warn().Str("notifier", n.Name()).Msg("notifier set closed, ignoring registration")
		return
	}
	s.notifiers = append(s.notifiers, n)
	if n.Enabled() {
		w := &notifierWorker{notifier: n, queue: make(chan Alert, s.queueSize)}
		s.workers = append(s.workers, w)
		s.wg.Add(1)
		go s.run(w)
	}
	logging.Info().Str("notifier", n.Name()).Bool("enabled", n.Enabled()).Int("queue_size", s.queueSize).Msg("registered notifier")
}

// Len returns the number of registered notifiers.
func (s *Notifiers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifiers)
}

// Notify queues each alert for every enabled notifier. It never blocks.
func (s *Notifiers) Notify(ctx context.Context, alerts []Alert) {
	if len(alerts) == 0 || ctx.Err() != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	for _, w := range s.workers {
		for i := range alerts {
			select {
			case w.queue <- alerts[i]:
			default:
				metrics.RecordEventDropped("notifier")
				logging.Warn().Str("notifier", w.notifier.Name()).Str("alert_type", string(alerts[i].Type)).
					Uint64("source_id", alerts[i].SourceID).Msg("notifier queue full, alert dropped")
			}
		}
	}
}

func (s *Notifiers) run(w *notifierWorker) {
	defer s.wg.Done()
	for alert := range w.queue {
		if s.sendCtx.Err() != nil {
			metrics.RecordEventDropped("notifier")
			continue
		}
		if err := w.notifier.Send(s.sendCtx, &alert); err != nil {
			logging.Error().Err(err).Str("notifier", w.notifier.Name()).Str("alert_type", string(alert.Type)).Msg("failed to send alert")
		}
	}
}

// Close stops accepting alerts and drains the queues. Deliveries still
// pending when ctx is done are canceled. Close is safe to call more than once.
func (s *Notifiers) Close(ctx context.Context) {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, w := range s.workers {
			close(w.queue)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn().Int("pending", s.pending()).Msg("alert delivery cut short by shutdown")
		s.cancelSend()
		<-done
	}
	s.cancelSend()
}

// pending returns the number of alerts waiting across all queues.
func (s *Notifiers) pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, w := range s.workers {
		n += len(w.queue)
	}
	return n
}
