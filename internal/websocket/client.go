// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize bounds inbound messages when no limit is given.
	DefaultMaxMessageSize = 2 << 20
	// DefaultQueueSize is the outbound queue capacity when none is given.
	DefaultQueueSize = 256
)

// Role distinguishes the two kinds of participant.
type Role string

const (
	RoleSource  Role = "source"
	RoleMonitor Role = "monitor"
)

// Handler receives inbound traffic for a client. HandleMessage is called
// from the client's read goroutine, one message at a time. HandleClose is
// called exactly once when the read loop ends.
type Handler interface {
	HandleMessage(c *Client, msg InboundMessage)
	HandleClose(c *Client)
}

// ClientOptions configures a client.
type ClientOptions struct {
	QueueSize      int
	MaxMessageSize int64
}

var clientIDCounter atomic.Uint64

// Client is a middleman between a websocket connection and the relay.
type Client struct {
	id      uint64
	role    Role
	conn    *websocket.Conn
	handler Handler

	maxMessageSize int64

	mu     sync.Mutex
	send   chan Message
	closed bool

	// sessionID is the registry id bound to this connection.
	sessionID atomic.Uint64
}

// NewClient wraps conn. Call Start to begin pumping.
func NewClient(conn *websocket.Conn, role Role, handler Handler, opts ClientOptions) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Client{
		id:             clientIDCounter.Add(1),
		role:           role,
		conn:           conn,
		handler:        handler,
		maxMessageSize: opts.MaxMessageSize,
		send:           make(chan Message, opts.QueueSize),
	}
}

// ID returns the client's unique identifier for deterministic ordering
func (c *Client) ID() uint64 {
	return c.id
}

// Role returns the participant role.
func (c *Client) Role() Role {
	return c.role
}

// SessionID returns the registry id bound with SetSessionID.
func (c *Client) SessionID() uint64 {
	return c.sessionID.Load()
}

// SetSessionID binds the connection to a registry id.
func (c *Client) SetSessionID(id uint64) {
	c.sessionID.Store(id)
}

// TrySend enqueues msg without blocking. It returns false when the queue
// is full or the client is closed.
func (c *Client) TrySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// trySendBelow enqueues msg only while the queue holds fewer than limit messages.
func (c *Client) trySendBelow(msg Message, limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.send) >= limit {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// QueueLen returns the number of queued outbound messages.
func (c *Client) QueueLen() int {
	return len(c.send)
}

// QueueCap returns the outbound queue capacity.
func (c *Client) QueueCap() int {
	return cap(c.send)
}

// Close stops the write pump after it drains queued messages. Safe to call
// more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	metrics.WSConnections.WithLabelValues(string(c.role)).Inc()
	go c.writePump()
	go c.readPump()
}

// readPump pumps messages from the websocket connection to the handler
func (c *Client) readPump() {
	defer func() {
		metrics.WSConnections.WithLabelValues(string(c.role)).Dec()
		c.Close()
		_ = c.conn.Close()
		if c.handler != nil {
			c.handler.HandleClose(c)
		}
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				metrics.WSErrors.WithLabelValues("read_limit").Inc()
				logging.Warn().Str("role", string(c.role)).Uint64("client_id", c.id).Msg("websocket message exceeded size limit")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure):
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()
		// Any inbound traffic proves the peer is alive
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			logging.Debug().Str("role", string(c.role)).Uint64("client_id", c.id).Msg("ignoring malformed websocket message")
			continue
		}

		if msg.Type == TypePing {
			c.TrySend(Message{Type: TypePong})
			continue
		}
		if c.handler != nil {
			c.handler.HandleMessage(c, msg)
		}
	}
}

// writePump pumps queued messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// Queue closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				metrics.WSErrors.WithLabelValues("encode").Inc()
				logging.Error().Err(err).Str("type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
