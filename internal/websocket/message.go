// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package websocket

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Monitor-bound message types.
const (
	TypeSnapshot       = "snapshot"
	TypeSourceJoined   = "source-joined"
	TypeSourceLeft     = "source-left"
	TypeFrame          = "frame"
	TypeAnalysisResult = "analysis-result"
	TypeAlert          = "alert"
	TypeServiceStatus  = "service-status"
)

// Source-bound message types.
const (
	TypeAssigned           = "assigned"
	TypeRegistrationResult = "registration-result"
	TypeError              = "error"
)

// Inbound message types, plus the shared ping/pong pair.
const (
	TypePing            = "ping"
	TypePong            = "pong"
	TypeRegister        = "register"
	TypeRequestSnapshot = "request-snapshot"
)

// Message is an outbound {type, data} envelope.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// InboundMessage is a received envelope. Data is decoded by the handler
// once the type is known.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodeData unmarshals the message payload into v.
func (m InboundMessage) DecodeData(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", m.Type, err)
	}
	return nil
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
