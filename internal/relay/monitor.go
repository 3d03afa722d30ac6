// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package relay

import (
	"github.com/gorilla/websocket"

	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
	ws "github.com/tomtom215/proctorwatch/internal/websocket"
)

type monitorHandler struct {
	relay     *Relay
	monitorID uint64
}

// ServeMonitor takes ownership of an upgraded monitor connection and joins
// it to the fan-out. The connection is closed if the hub has stopped.
func (r *Relay) ServeMonitor(conn *websocket.Conn) {
	m := r.registry.CreateMonitor()
	h := &monitorHandler{relay: r, monitorID: m.ID}

	client := ws.NewClient(conn, ws.RoleMonitor, h, ws.ClientOptions{QueueSize: r.cfg.MonitorQueueSize})
	client.SetSessionID(m.ID)
	if !r.hub.Register(client) {
		logging.Warn().Uint64("monitor_id", m.ID).Msg("Hub stopped, rejecting monitor")
		r.registry.RemoveMonitor(m.ID)
		_ = conn.Close()
		return
	}
	client.Start()
}

func (h *monitorHandler) HandleMessage(c *ws.Client, msg ws.InboundMessage) {
	switch msg.Type {
	case ws.TypeRequestSnapshot:
		if !c.TrySend(h.relay.snapshotMessage()) {
			metrics.RecordFanoutDrop(ws.TypeSnapshot)
		}
	default:
		logging.Debug().Uint64("monitor_id", h.monitorID).Str("type", msg.Type).Msg("Ignoring unsupported monitor message")
	}
}

func (h *monitorHandler) HandleClose(c *ws.Client) {
	h.relay.hub.Unregister(c)
	h.relay.registry.RemoveMonitor(c.SessionID())
	logging.Debug().Uint64("monitor_id", c.SessionID()).Str("role", string(c.Role())).Msg("Monitor connection closed")
}
