// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/proctorwatch/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

const testFrame = "data:image/jpeg;base64,/9j/4AAQ"

// fakeService is a scriptable analysis service.
type fakeService struct {
	health     func(w http.ResponseWriter)
	analyze    func(w http.ResponseWriter, req analyzeRequest)
	register   func(w http.ResponseWriter, req registerRequest)
	stats      func(w http.ResponseWriter)
	lastMethod string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastMethod = r.Method
	switch r.URL.Path {
	case "/health":
		if f.health != nil {
			f.health(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	case "/analyze":
		var req analyzeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.analyze(w, req)
	case "/register":
		var req registerRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.register(w, req)
	case "/stats":
		f.stats(w)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeServer(t *testing.T, f *fakeService) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

func checkStringEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func TestClient_Health(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter)
		wantErr bool
	}{
		{"healthy", nil, false},
		{"unhealthy status", func(w http.ResponseWriter) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "degraded"})
		}, true},
		{"server error", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, true},
		{"not json", func(w http.ResponseWriter) {
			_, _ = w.Write([]byte("ok"))
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t, &fakeService{health: tt.handler})
			err := NewClient(KindGaze, srv.URL+"/").Health(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Health() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_HealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(KindGaze, url).Health(context.Background())
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("Health() error = %v, want *AnalysisError", err)
	}
}

func TestClient_Analyze(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		response  map[string]interface{}
		wantLabel string
		wantConf  float64
		wantErr   bool
	}{
		{"gaze left", KindGaze, map[string]interface{}{"gaze_direction": "left", "confidence": 0.8}, "left", 0.8, false},
		{"gaze error label", KindGaze, map[string]interface{}{"gaze_direction": "error"}, "", 0, true},
		{"synthetic fake", KindSyntheticFace, map[string]interface{}{"success": true, "ai_detection": "fake", "confidence": 0.93}, "fake", 0.93, false},
		{"synthetic failure", KindSyntheticFace, map[string]interface{}{"success": false, "error": "decode failed"}, "", 0, true},
		{"identity no match", KindIdentity, map[string]interface{}{"face_verification": "no_match", "confidence": 0.41}, "no_match", 0.41, false},
		{"identity unknown label", KindIdentity, map[string]interface{}{"face_verification": "maybe"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got analyzeRequest
			srv := newFakeServer(t, &fakeService{analyze: func(w http.ResponseWriter, req analyzeRequest) {
				got = req
				writeJSON(w, http.StatusOK, tt.response)
			}})

			result, err := NewClient(tt.kind, srv.URL).Analyze(context.Background(), 4, testFrame)
			if got.StudentID != 4 || got.FrameData != testFrame {
				t.Errorf("request body = %+v", got)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Analyze() expected error, got result %v", result)
				}
				var analysisErr *AnalysisError
				if !errors.As(err, &analysisErr) {
					t.Errorf("error %v is not *AnalysisError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if result.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", result.Kind(), tt.kind)
			}
			checkStringEqual(t, "Label()", result.Label(), tt.wantLabel)
			if result.Confidence() != tt.wantConf {
				t.Errorf("Confidence() = %v, want %v", result.Confidence(), tt.wantConf)
			}
		})
	}
}

func TestClient_AnalyzeResultTypes(t *testing.T) {
	srv := newFakeServer(t, &fakeService{analyze: func(w http.ResponseWriter, _ analyzeRequest) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ai_detection": "real"})
	}})

	result, err := NewClient(KindSyntheticFace, srv.URL).Analyze(context.Background(), 1, testFrame)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if _, ok := result.(SyntheticFaceResult); !ok {
		t.Errorf("result type = %T, want SyntheticFaceResult", result)
	}
}

func TestClient_AnalyzeStatusError(t *testing.T) {
	srv := newFakeServer(t, &fakeService{analyze: func(w http.ResponseWriter, _ analyzeRequest) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}})

	_, err := NewClient(KindGaze, srv.URL).Analyze(context.Background(), 1, testFrame)
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("error = %v, want *AnalysisError", err)
	}
	if analysisErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", analysisErr.StatusCode)
	}
	if FailureReason(err) != "failure" {
		t.Errorf("FailureReason() = %q, want failure", FailureReason(err))
	}
}

func TestClient_AnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeServer(t, &fakeService{analyze: func(w http.ResponseWriter, _ analyzeRequest) {
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"gaze_direction": "center"})
	}})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(KindGaze, srv.URL).Analyze(ctx, 1, testFrame)
	if !errors.Is(err, ErrAnalysisTimeout) {
		t.Fatalf("error = %v, want ErrAnalysisTimeout", err)
	}
	if FailureReason(err) != "timeout" {
		t.Errorf("FailureReason() = %q, want timeout", FailureReason(err))
	}
}

func TestClient_Register(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		response    map[string]interface{}
		wantErr     bool
		wantRefused bool
		wantReason  string
	}{
		{"success", http.StatusOK, map[string]interface{}{"success": true}, false, false, ""},
		{"refused", http.StatusOK, map[string]interface{}{"success": false, "error": "no face found"}, true, true, "no face found"},
		{"bad request", http.StatusBadRequest, map[string]interface{}{"success": false, "error": "image required"}, true, true, "image required"},
		{"server error", http.StatusInternalServerError, map[string]interface{}{"error": "boom"}, true, false, "identity service returned status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got registerRequest
			srv := newFakeServer(t, &fakeService{register: func(w http.ResponseWriter, req registerRequest) {
				got = req
				writeJSON(w, tt.status, tt.response)
			}})

			err := NewClient(KindIdentity, srv.URL).Register(context.Background(), 2, "Student 2", testFrame)
			checkStringEqual(t, "studentName", got.StudentName, "Student 2")
			if got.StudentID != 2 {
				t.Errorf("studentId = %d, want 2", got.StudentID)
			}

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Register() error = %v", err)
				}
				return
			}
			var regErr *RegistrationError
			if !errors.As(err, &regErr) {
				t.Fatalf("error = %v, want *RegistrationError", err)
			}
			if regErr.Refused != tt.wantRefused {
				t.Errorf("Refused = %v, want %v", regErr.Refused, tt.wantRefused)
			}
			checkStringEqual(t, "Reason", regErr.Reason, tt.wantReason)
		})
	}
}

func TestClient_RegisterWrongKind(t *testing.T) {
	err := NewClient(KindGaze, "http://127.0.0.1:1").Register(context.Background(), 1, "Student 1", testFrame)
	var regErr *RegistrationError
	if !errors.As(err, &regErr) || !regErr.Refused {
		t.Fatalf("error = %v, want refused *RegistrationError", err)
	}
}

func TestClient_Stats(t *testing.T) {
	srv := newFakeServer(t, &fakeService{stats: func(w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, map[string]int{"registered_students": 3})
	}})

	raw, err := NewClient(KindIdentity, srv.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	var stats map[string]int
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats["registered_students"] != 3 {
		t.Errorf("stats = %v", stats)
	}
}
