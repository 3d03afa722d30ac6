// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/models"
	"github.com/tomtom215/proctorwatch/internal/relay"
	"github.com/tomtom215/proctorwatch/internal/session"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

const testImage = "data:image/png;base64,iVBORw0KGgo="

type fakeRelay struct {
	mu          sync.Mutex
	registerErr error
	registered  []uint64
	sources     []session.SourceSnapshot
	served      chan string
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{served: make(chan string, 4)}
}

func (f *fakeRelay) ServeSource(conn *websocket.Conn) {
	_ = conn.Close()
	f.served <- "source"
}

func (f *fakeRelay) ServeMonitor(conn *websocket.Conn) {
	_ = conn.Close()
	f.served <- "monitor"
}

func (f *fakeRelay) Register(_ context.Context, sourceID uint64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, sourceID)
	return f.registerErr
}

func (f *fakeRelay) Sources() []session.SourceSnapshot {
	return f.sources
}

func (f *fakeRelay) SourceDetail(sourceID uint64) (session.SourceDetail, error) {
	for _, src := range f.sources {
		if src.ID == sourceID {
			return session.SourceDetail{
				SourceSnapshot: src,
				Analysis:       []session.KindActivity{{Kind: "gaze", InFlight: true, History: []session.HistoryEntry{{Label: "left"}}}},
			}, nil
		}
	}
	return session.SourceDetail{}, fmt.Errorf("%w: %d", relay.ErrSourceNotFound, sourceID)
}

type fakeServices struct {
	statsErr error
}

func (f *fakeServices) States() map[analysis.Kind]models.ServiceState {
	return map[analysis.Kind]models.ServiceState{
		analysis.KindGaze:          {Enabled: true, URL: "http://gaze:5000"},
		analysis.KindSyntheticFace: {Enabled: false, URL: "http://synthetic:5001"},
		analysis.KindIdentity:      {Enabled: false},
	}
}

func (f *fakeServices) LiveHealth(_ context.Context, timeout time.Duration) []models.ServiceHealth {
	return []models.ServiceHealth{
		{Kind: "gaze", URL: "http://gaze:5000", Enabled: true, Healthy: true, LatencyMS: timeout.Milliseconds()},
	}
}

func (f *fakeServices) Stats(_ context.Context, kind analysis.Kind) (json.RawMessage, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return json.RawMessage(fmt.Sprintf(`{"kind":%q,"requests":7}`, kind)), nil
}

type fakeCounter struct{ sources, monitors int }

func (f fakeCounter) SourceCount() int  { return f.sources }
func (f fakeCounter) MonitorCount() int { return f.monitors }

func testConfig() *config.Config {
	return &config.Config{
		Relay: config.RelayConfig{MaxFrameBytes: 1 << 20},
		Security: config.SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

func newTestHandler(rel *fakeRelay, svc *fakeServices) *Handler {
	return NewHandler(rel, svc, fakeCounter{sources: 3, monitors: 1}, testConfig())
}

type testResponse struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthLive(t *testing.T) {
	h := newTestHandler(newFakeRelay(), &fakeServices{})

	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Status != "success" {
		t.Errorf("status field = %q", resp.Status)
	}

	rec = httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodPost, "/api/v1/health/live", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestHealthReady(t *testing.T) {
	h := newTestHandler(newFakeRelay(), &fakeServices{})

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before MarkReady status = %d, want 503", rec.Code)
	}

	h.MarkReady()
	rec = httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("after MarkReady status = %d, want 200", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	h := newTestHandler(newFakeRelay(), &fakeServices{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var summary models.StatusSummary
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Sources != 3 || summary.Monitors != 1 {
		t.Errorf("counts = %d sources, %d monitors", summary.Sources, summary.Monitors)
	}
	if len(summary.Services) != 3 {
		t.Fatalf("services = %+v", summary.Services)
	}
	if gaze := summary.Services["gaze"]; !gaze.Enabled || gaze.URL != "http://gaze:5000" {
		t.Errorf("gaze = %+v", gaze)
	}
	if summary.Services["identity"].Enabled {
		t.Error("identity should be disabled")
	}
}

func TestSources(t *testing.T) {
	rel := newFakeRelay()
	rel.sources = []session.SourceSnapshot{{ID: 1, Name: "Student 1"}, {ID: 4, Name: "Student 4"}}
	h := newTestHandler(rel, &fakeServices{})

	rec := httptest.NewRecorder()
	h.Sources(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil))

	var got []session.SourceSnapshot
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].ID != 4 {
		t.Errorf("sources = %+v", got)
	}
}

// serveRoute runs handler behind a chi route so URL params resolve.
func serveRoute(method, pattern, target string, body string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestSourceDetail(t *testing.T) {
	rel := newFakeRelay()
	rel.sources = []session.SourceSnapshot{{ID: 4, Name: "Student 4"}}
	h := newTestHandler(rel, &fakeServices{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"live source", "/api/v1/sources/4", http.StatusOK, ""},
		{"unknown source", "/api/v1/sources/5", http.StatusNotFound, "NOT_FOUND"},
		{"bad id", "/api/v1/sources/four", http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveRoute(http.MethodGet, "/api/v1/sources/{id}", tt.target, "", h.SourceDetail)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeResponse(t, rec)
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			var got session.SourceDetail
			if err := json.Unmarshal(resp.Data, &got); err != nil {
				t.Fatal(err)
			}
			if got.ID != 4 || len(got.Analysis) != 1 || !got.Analysis[0].InFlight || got.Analysis[0].History[0].Label != "left" {
				t.Errorf("detail = %+v", got)
			}
		})
	}
}

func TestRegisterSource(t *testing.T) {
	validBody := `{"referenceImage":"` + testImage + `"}`

	tests := []struct {
		name        string
		target      string
		body        string
		registerErr error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"success", "/api/v1/sources/2/register", validBody, nil, http.StatusOK, "", ""},
		{"bad id", "/api/v1/sources/abc/register", validBody, nil, http.StatusBadRequest, "VALIDATION_ERROR", ""},
		{"zero id", "/api/v1/sources/0/register", validBody, nil, http.StatusBadRequest, "VALIDATION_ERROR", ""},
		{"malformed body", "/api/v1/sources/2/register", `{"referenceImage":`, nil, http.StatusBadRequest, "VALIDATION_ERROR", ""},
		{"not an image", "/api/v1/sources/2/register", `{"referenceImage":"hello"}`, nil, http.StatusBadRequest, "VALIDATION_ERROR", ""},
		{"unknown source", "/api/v1/sources/9/register", validBody, fmt.Errorf("%w: 9", relay.ErrSourceNotFound), http.StatusNotFound, "NOT_FOUND", ""},
		{"in progress", "/api/v1/sources/2/register", validBody, relay.ErrRegistrationInProgress, http.StatusConflict, "CONFLICT", ""},
		{
			"refused", "/api/v1/sources/2/register", validBody,
			&analysis.RegistrationError{Reason: "no face detected", Refused: true},
			http.StatusUnprocessableEntity, "REGISTRATION_FAILED", "no face detected",
		},
		{"unexpected", "/api/v1/sources/2/register", validBody, errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := newFakeRelay()
			rel.registerErr = tt.registerErr
			h := newTestHandler(rel, &fakeServices{})

			rec := serveRoute(http.MethodPost, "/api/v1/sources/{id}/register", tt.target, tt.body, h.RegisterSource)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			resp := decodeResponse(t, rec)
			if tt.wantCode == "" {
				if resp.Status != "success" {
					t.Errorf("status field = %q", resp.Status)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			if tt.wantMessage != "" && resp.Error.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.wantMessage)
			}
		})
	}
}

func TestRegisterSource_ValidationDetails(t *testing.T) {
	h := newTestHandler(newFakeRelay(), &fakeServices{})
	rec := serveRoute(http.MethodPost, "/api/v1/sources/{id}/register", "/api/v1/sources/1/register", `{}`, h.RegisterSource)

	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Details["field"] != "referenceImage" {
		t.Errorf("error = %+v, want field detail", resp.Error)
	}
}

func TestServicesStatus(t *testing.T) {
	h := newTestHandler(newFakeRelay(), &fakeServices{})

	rec := httptest.NewRecorder()
	h.ServicesStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/status", nil))

	var report []models.ServiceHealth
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report) != 1 || !report[0].Healthy {
		t.Fatalf("report = %+v", report)
	}
	if report[0].LatencyMS != liveHealthTimeout.Milliseconds() {
		t.Errorf("probe timeout passed = %dms, want %dms", report[0].LatencyMS, liveHealthTimeout.Milliseconds())
	}
}

func TestServiceStats(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		statsErr   error
		wantStatus int
	}{
		{"proxied", "ai-detection", nil, http.StatusOK},
		{"unknown kind", "pose", nil, http.StatusNotFound},
		{"not configured", "gaze", fmt.Errorf("%w: gaze not configured", analysis.ErrServiceUnavailable), http.StatusServiceUnavailable},
		{"upstream failure", "identity", &analysis.AnalysisError{Kind: analysis.KindIdentity, Op: "stats", StatusCode: 500}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(newFakeRelay(), &fakeServices{statsErr: tt.statsErr})
			rec := serveRoute(http.MethodGet, "/api/v1/services/{kind}/stats", "/api/v1/services/"+tt.kind+"/stats", "", h.ServiceStats)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var stats map[string]interface{}
			if err := json.Unmarshal(decodeResponse(t, rec).Data, &stats); err != nil {
				t.Fatal(err)
			}
			if stats["kind"] != "synthetic_face" {
				t.Errorf("stats = %+v, want synthetic_face passthrough", stats)
			}
		})
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		host    string
		want    bool
	}{
		{"wildcard allows any", []string{"*"}, "https://elsewhere.example", "relay:3000", true},
		{"wildcard allows missing", []string{"*"}, "", "relay:3000", true},
		{"listed origin", []string{"https://proctor.example"}, "https://proctor.example", "relay:3000", true},
		{"unlisted origin", []string{"https://proctor.example"}, "https://evil.example", "relay:3000", false},
		{"missing origin when restricted", []string{"https://proctor.example"}, "", "relay:3000", false},
		{"same host", []string{"https://proctor.example"}, "http://relay:3000", "relay:3000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Security.CORSOrigins = tt.origins
			h := NewHandler(newFakeRelay(), &fakeServices{}, fakeCounter{}, cfg)

			req := httptest.NewRequest(http.MethodGet, "/ws/monitor", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}
