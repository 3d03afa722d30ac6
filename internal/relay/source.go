// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/metrics"
	"github.com/tomtom215/proctorwatch/internal/models"
	"github.com/tomtom215/proctorwatch/internal/session"
	"github.com/tomtom215/proctorwatch/internal/validation"
	ws "github.com/tomtom215/proctorwatch/internal/websocket"
)

// Frame drop reasons.
const (
	dropDecode      = "decode"
	dropInvalid     = "invalid"
	dropTooLarge    = "too_large"
	dropRateLimited = "rate_limited"
	dropVanished    = "vanished"
)

// envelopeAllowance is the room left in a source's read limit for the JSON
// envelope around the largest accepted frame.
const envelopeAllowance = 64 << 10

// sourceHandler handles one source connection.
type sourceHandler struct {
	relay   *Relay
	src     *session.Source
	limiter *rate.Limiter
	log     zerolog.Logger
}

// ServeSource takes ownership of an upgraded source connection.
func (r *Relay) ServeSource(conn *websocket.Conn) {
	src := r.registry.CreateSource()

	h := &sourceHandler{
		relay: r,
		src:   src,
		log:   logging.WithSource("relay", src.ID),
	}
	if r.cfg.MaxFrameRate > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(r.cfg.MaxFrameRate), r.cfg.FrameBurst)
	}

	var readLimit int64
	if r.cfg.MaxFrameBytes > 0 {
		// Slightly oversized frames are dropped by handleFrame; anything far
		// beyond the limit closes the connection.
		readLimit = 2*r.cfg.MaxFrameBytes + envelopeAllowance
	}
	client := ws.NewClient(conn, ws.RoleSource, h, ws.ClientOptions{MaxMessageSize: readLimit})
	client.SetSessionID(src.ID)
	client.TrySend(ws.Message{Type: ws.TypeAssigned, Data: AssignedPayload{SourceID: src.ID, Name: src.Name}})

	// Announced before the read loop starts, so monitors never see a frame
	// from a source they have not been told about.
	r.hub.BroadcastJSON(ws.TypeSourceJoined, src.Snapshot())
	client.Start()
}

func (h *sourceHandler) HandleMessage(c *ws.Client, msg ws.InboundMessage) {
	switch msg.Type {
	case ws.TypeFrame:
		h.handleFrame(msg)
	case ws.TypeRegister:
		h.handleRegister(c, msg)
	default:
		h.log.Debug().Str("type", msg.Type).Msg("Ignoring unsupported source message")
	}
}

func (h *sourceHandler) HandleClose(c *ws.Client) {
	if !h.relay.registry.RemoveSource(c.SessionID()) {
		return
	}
	h.relay.hub.BroadcastJSON(ws.TypeSourceLeft, SourceLeftPayload{SourceID: h.src.ID, Name: h.src.Name})
	h.log.Debug().Str("role", string(c.Role())).Uint64("client_id", c.ID()).Msg("Source connection closed")
}

// handleFrame relays a frame to monitors and offers it to every enabled
// analysis kind. It returns the drop reason, or "" when the frame was relayed.
func (h *sourceHandler) handleFrame(msg ws.InboundMessage) string {
	r := h.relay

	var frame models.Frame
	if err := msg.DecodeData(&frame); err != nil {
		return h.drop(dropDecode, err)
	}
	if r.cfg.MaxFrameBytes > 0 && int64(len(frame.DataURL)) > r.cfg.MaxFrameBytes {
		return h.drop(dropTooLarge, fmt.Errorf("frame of %d bytes exceeds limit of %d", len(frame.DataURL), r.cfg.MaxFrameBytes))
	}
	if verr := validation.ValidateStruct(&frame); verr != nil {
		return h.drop(dropInvalid, verr)
	}
	if h.limiter != nil && !h.limiter.Allow() {
		return h.drop(dropRateLimited, nil)
	}

	now := r.registry.Now()
	if err := r.registry.TouchFrame(h.src.ID, now); err != nil {
		return h.drop(dropVanished, err)
	}
	metrics.FramesReceived.Inc()

	r.hub.BroadcastJSON(ws.TypeFrame, FramePayload{
		SourceID:  h.src.ID,
		Name:      h.src.Name,
		Frame:     frame.DataURL,
		Width:     frame.Width,
		Height:    frame.Height,
		Timestamp: now,
	})

	for _, kind := range r.backend.EnabledKinds() {
		r.dispatcher.Submit(h.src.ID, kind, frame.DataURL)
	}
	return ""
}

func (h *sourceHandler) drop(reason string, err error) string {
	metrics.RecordFrameDropped(reason)
	event := h.log.Debug().Str("reason", reason)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Frame dropped")
	return reason
}

// handleRegister runs the registration off the read goroutine so frames keep
// flowing while the identity service works.
func (h *sourceHandler) handleRegister(c *ws.Client, msg ws.InboundMessage) {
	var req models.RegistrationRequest
	if err := msg.DecodeData(&req); err != nil {
		c.TrySend(registrationResult(err))
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		c.TrySend(registrationResult(verr))
		return
	}

	go func() {
		err := h.relay.Register(context.Background(), h.src.ID, req.ReferenceImage)
		if errors.Is(err, ErrSourceNotFound) {
			return
		}
		c.TrySend(registrationResult(err))
	}()
}

func registrationResult(err error) ws.Message {
	result := models.RegistrationResult{Success: err == nil}
	if err != nil {
		var regErr *analysis.RegistrationError
		if errors.As(err, &regErr) {
			result.Error = regErr.Reason
		} else {
			result.Error = err.Error()
		}
	}
	return ws.Message{Type: ws.TypeRegistrationResult, Data: result}
}

// Register uploads a reference image for sourceID and marks the source
// registered on success. Registering an already registered source succeeds
// without calling the identity service. Failures from the identity service
// are returned as *analysis.RegistrationError and are not retried.
func (r *Relay) Register(ctx context.Context, sourceID uint64, referenceImage string) error {
	src, ok := r.registry.Source(sourceID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrSourceNotFound, sourceID)
	}
	if src.Registered() {
		return nil
	}

	registrar, ok := r.backend.Registrar()
	if !ok {
		return &analysis.RegistrationError{Reason: "identity verification is not enabled", Refused: true}
	}

	if !src.BeginRegistration() {
		if src.Closed() {
			return fmt.Errorf("%w: %d", ErrSourceNotFound, sourceID)
		}
		return ErrRegistrationInProgress
	}
	defer src.EndRegistration()

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RegisterTimeout)
	defer cancel()

	log := logging.WithSource("relay", sourceID)
	err := registrar.Register(callCtx, src.ID, src.Name, referenceImage)
	metrics.RecordRegistration(err == nil)
	if err != nil {
		log.Warn().Err(err).Msg("Identity registration failed")
		return err
	}

	if err := r.registry.MarkRegistered(sourceID); err != nil {
		return fmt.Errorf("%w: %d", ErrSourceNotFound, sourceID)
	}
	log.Info().Msg("Identity registration succeeded")
	return nil
}
