// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// broadcastBufferSize is the capacity of the hub's inbound broadcast channel.
const broadcastBufferSize = 1024

// InitialMessages produces the messages a monitor receives before any
// broadcast. It runs inside the hub loop.
type InitialMessages func() []Message

// Hub maintains the set of monitor clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	initial InitialMessages
}

// NewHub creates a hub. initial may be nil.
func NewHub(initial InitialMessages) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		initial:    initial,
	}
}

// Register hands a monitor to the hub loop. It returns false if the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a monitor from the broadcast set and closes its queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.Close()
	}
}

// RunWithContext runs the hub loop until ctx is canceled, then closes every
// monitor. Designed for use with suture supervision.
//
// Lifecycle events take priority over broadcasts so that the client set is
// consistent before a message is delivered.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: lifecycle
		select {
		case client := <-h.register:
			h.addClient(client)
			continue
		case client := <-h.unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: wait for anything
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// addClient enqueues the initial messages, then joins the broadcast set.
func (h *Hub) addClient(client *Client) {
	if h.initial != nil {
		for _, msg := range h.initial() {
			if !client.TrySend(msg) {
				metrics.RecordFanoutDrop(msg.Type)
				logging.Warn().Uint64("client_id", client.ID()).Str("type", msg.Type).Msg("monitor queue full during registration")
			}
		}
	}

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_monitors", total).Msg("monitor joined fan-out")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	client.Close()
	if ok {
		logging.Info().Int("total_monitors", total).Msg("monitor left fan-out")
	}
}

// shutdown closes all monitors and logs the reason.
func (h *Hub) shutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.done) })
	count := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns the broadcast set ordered by client id. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message to every monitor in id order.
// Frames are skipped for monitors at or above three quarters of their queue;
// a monitor that cannot take a control message is evicted.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var evicted []*Client
	for _, client := range h.sortedClients() {
		if message.Type == TypeFrame {
			if !client.trySendBelow(message, frameLimit(client.QueueCap())) {
				metrics.RecordFanoutDrop(TypeFrame)
			}
			continue
		}
		if !client.TrySend(message) {
			metrics.RecordFanoutDrop(message.Type)
			evicted = append(evicted, client)
		}
	}

	for _, client := range evicted {
		delete(h.clients, client)
		client.Close()
		logging.Warn().Uint64("client_id", client.ID()).Str("type", message.Type).Msg("monitor queue full, evicting slow monitor")
	}
}

// frameLimit is the queue length at which frames stop being enqueued.
func frameLimit(capacity int) int {
	limit := capacity * 3 / 4
	if limit < 1 {
		limit = 1
	}
	return limit
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.sortedClients() {
		client.Close()
		delete(h.clients, client)
	}
}

// Broadcast queues message for every monitor. It never blocks; when the
// hub's own buffer is full the message is dropped.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.RecordFanoutDrop(message.Type)
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastJSON sends a typed payload to every monitor.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.Broadcast(Message{Type: messageType, Data: data})
}

// ClientCount returns the number of monitors in the broadcast set.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
