// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// recordingHandler captures inbound traffic.
type recordingHandler struct {
	mu       sync.Mutex
	messages []InboundMessage
	closed   chan struct{}
	once     sync.Once
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{closed: make(chan struct{})}
}

func (h *recordingHandler) HandleMessage(_ *Client, msg InboundMessage) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
}

func (h *recordingHandler) HandleClose(_ *Client) {
	h.once.Do(func() { close(h.closed) })
}

func (h *recordingHandler) received() []InboundMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]InboundMessage(nil), h.messages...)
}

// startClientServer serves one upgraded connection wrapped in a Client.
func startClientServer(t *testing.T, handler Handler, opts ClientOptions) (*httptest.Server, chan *Client) {
	t.Helper()
	clients := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewClient(conn, RoleSource, handler, opts)
		c.Start()
		clients <- c
	}))
	t.Cleanup(srv.Close)
	return srv, clients
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestClient_PingPong(t *testing.T) {
	handler := newRecordingHandler()
	srv, _ := startClientServer(t, handler, ClientOptions{})
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if got := readMessage(t, conn); got.Type != TypePong {
		t.Errorf("reply type = %q, want pong", got.Type)
	}
	if len(handler.received()) != 0 {
		t.Error("ping must be answered by the client, not the handler")
	}
}

func TestClient_DispatchesMessagesAndSkipsMalformed(t *testing.T) {
	handler := newRecordingHandler()
	srv, _ := startClientServer(t, handler, ClientOptions{})
	conn := dial(t, srv)

	for _, raw := range []string{
		`not json`,
		`{"data":{}}`,
		`{"type":"register","data":{"referenceImage":"data:image/png;base64,AAAA"}}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(handler.received()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := handler.received()
	if len(got) != 1 || got[0].Type != TypeRegister {
		t.Fatalf("received = %+v", got)
	}

	var payload struct {
		ReferenceImage string `json:"referenceImage"`
	}
	if err := got[0].DecodeData(&payload); err != nil {
		t.Fatalf("DecodeData() error = %v", err)
	}
	if payload.ReferenceImage == "" {
		t.Error("referenceImage not decoded")
	}
}

func TestClient_TrySendDeliversInOrder(t *testing.T) {
	handler := newRecordingHandler()
	srv, clients := startClientServer(t, handler, ClientOptions{QueueSize: 4})
	conn := dial(t, srv)
	c := <-clients

	c.SetSessionID(12)
	if c.SessionID() != 12 || c.Role() != RoleSource {
		t.Errorf("client = id %d role %s", c.SessionID(), c.Role())
	}

	for _, typ := range []string{TypeAssigned, TypeRegistrationResult} {
		if !c.TrySend(Message{Type: typ}) {
			t.Fatalf("TrySend(%s) = false", typ)
		}
	}
	if got := readMessage(t, conn); got.Type != TypeAssigned {
		t.Errorf("first = %q", got.Type)
	}
	if got := readMessage(t, conn); got.Type != TypeRegistrationResult {
		t.Errorf("second = %q", got.Type)
	}
}

func TestClient_CloseEndsConnection(t *testing.T) {
	handler := newRecordingHandler()
	srv, clients := startClientServer(t, handler, ClientOptions{})
	conn := dial(t, srv)
	c := <-clients

	c.Close()
	c.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read after Close = %v, want normal close", err)
	}

	select {
	case <-handler.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleClose was not called")
	}
}

func TestClient_PeerDisconnectCallsHandleClose(t *testing.T) {
	handler := newRecordingHandler()
	srv, clients := startClientServer(t, handler, ClientOptions{})
	conn := dial(t, srv)
	c := <-clients

	_ = conn.Close()
	select {
	case <-handler.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleClose was not called")
	}
	if !c.Closed() {
		t.Error("client should be closed after peer disconnect")
	}
}

func TestClient_ReadLimit(t *testing.T) {
	handler := newRecordingHandler()
	srv, _ := startClientServer(t, handler, ClientOptions{MaxMessageSize: 64})
	conn := dial(t, srv)

	big := `{"type":"frame","data":{"dataUrl":"` + strings.Repeat("A", 200) + `"}}`
	_ = conn.WriteMessage(websocket.TextMessage, []byte(big))

	select {
	case <-handler.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("oversized message should close the connection")
	}
}
