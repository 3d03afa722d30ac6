// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package api

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/models"
	"github.com/tomtom215/proctorwatch/internal/session"
)

// Relay is the connection side of the relay used by the handlers.
// *relay.Relay implements it.
type Relay interface {
	ServeSource(conn *websocket.Conn)
	ServeMonitor(conn *websocket.Conn)
	Register(ctx context.Context, sourceID uint64, referenceImage string) error
	Sources() []session.SourceSnapshot
	SourceDetail(sourceID uint64) (session.SourceDetail, error)
}

// Services reports on the analysis services. *analysis.Services implements it.
type Services interface {
	States() map[analysis.Kind]models.ServiceState
	LiveHealth(ctx context.Context, timeout time.Duration) []models.ServiceHealth
	Stats(ctx context.Context, kind analysis.Kind) (json.RawMessage, error)
}

// Counter reports connected participant counts. *session.Registry implements it.
type Counter interface {
	SourceCount() int
	MonitorCount() int
}

// liveHealthTimeout bounds each probe of GET /api/v1/services/status.
const liveHealthTimeout = 3 * time.Second

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrades
//   - handlers_helpers.go: response and request helpers
//   - handlers_health.go: liveness and readiness probes
//   - handlers_status.go: status, sources, registration and service endpoints
type Handler struct {
	relay     Relay
	services  Services
	counter   Counter
	config    *config.Config
	startTime time.Time
	ready     atomic.Bool
}

// NewHandler creates the API handler. The handler reports not ready until
// MarkReady is called.
func NewHandler(relay Relay, services Services, counter Counter, cfg *config.Config) *Handler {
	return &Handler{
		relay:     relay,
		services:  services,
		counter:   counter,
		config:    cfg,
		startTime: time.Now(),
	}
}

// MarkReady flips the readiness probe once the supervisor tree is serving.
func (h *Handler) MarkReady() {
	h.ready.Store(true)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against
// security.cors_origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	if h.config == nil {
		return true
	}

	wildcard := h.config.HasWildcardCORS()
	origin := r.Header.Get("Origin")
	if origin == "" {
		if !wildcard {
			logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		}
		return wildcard
	}
	if wildcard {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == origin {
			return true
		}
	}
	// Same-origin pages are always allowed
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// WebSocketSource upgrades a source connection and hands it to the relay.
func (h *Handler) WebSocketSource(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Source WebSocket upgrade error")
		return
	}
	h.relay.ServeSource(conn)
}

// WebSocketMonitor upgrades a monitor connection and hands it to the relay.
func (h *Handler) WebSocketMonitor(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Monitor WebSocket upgrade error")
		return
	}
	h.relay.ServeMonitor(conn)
}
