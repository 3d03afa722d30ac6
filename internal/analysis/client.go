// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// maxResponseBytes bounds how much of a service response is read.
const maxResponseBytes = 1 << 20

// Analyzer submits frames for analysis.
type Analyzer interface {
	Analyze(ctx context.Context, sourceID uint64, frameData string) (Result, error)
}

// Registrar uploads identity reference images.
type Registrar interface {
	Register(ctx context.Context, sourceID uint64, name, referenceImage string) error
}

// Client is a stateless HTTP client for one analysis service.
// It applies no timeout of its own; every call is bounded by the caller's context.
type Client struct {
	kind       Kind
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service of the given kind at baseURL
// (e.g., http://localhost:5000).
func NewClient(kind Kind, baseURL string) *Client {
	return &Client{
		kind:       kind,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Kind returns the analysis kind served by this client.
func (c *Client) Kind() Kind {
	return c.kind
}

// URL returns the service base URL.
func (c *Client) URL() string {
	return c.baseURL
}

type analyzeRequest struct {
	StudentID uint64 `json:"studentId"`
	FrameData string `json:"frameData"`
}

type registerRequest struct {
	StudentID      uint64 `json:"studentId"`
	StudentName    string `json:"studentName"`
	ReferenceImage string `json:"referenceImage"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health checks GET /health and requires {"status":"healthy"}.
func (c *Client) Health(ctx context.Context) error {
	body, status, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return wrapCallError(ctx, c.kind, "health", err)
	}
	if status != http.StatusOK {
		return &AnalysisError{Kind: c.kind, Op: "health", StatusCode: status, Err: errors.New(snippet(body))}
	}

	var resp healthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &AnalysisError{Kind: c.kind, Op: "health", Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.Status != "healthy" {
		return &AnalysisError{Kind: c.kind, Op: "health", Err: fmt.Errorf("status %q", resp.Status)}
	}
	return nil
}

// Analyze submits one frame and decodes the kind-specific result.
func (c *Client) Analyze(ctx context.Context, sourceID uint64, frameData string) (Result, error) {
	payload, err := json.Marshal(analyzeRequest{StudentID: sourceID, FrameData: frameData})
	if err != nil {
		return nil, &AnalysisError{Kind: c.kind, Op: "analyze", Err: err}
	}

	body, status, err := c.do(ctx, http.MethodPost, "/analyze", payload)
	if err != nil {
		return nil, wrapCallError(ctx, c.kind, "analyze", err)
	}
	if status != http.StatusOK {
		return nil, &AnalysisError{Kind: c.kind, Op: "analyze", StatusCode: status, Err: errors.New(snippet(body))}
	}

	result, err := decodeResult(c.kind, body)
	if err != nil {
		return nil, &AnalysisError{Kind: c.kind, Op: "analyze", Err: err}
	}
	return result, nil
}

// Register uploads a reference image for sourceID. Only the identity
// service supports registration. Every failure is a *RegistrationError.
func (c *Client) Register(ctx context.Context, sourceID uint64, name, referenceImage string) error {
	if c.kind != KindIdentity {
		return &RegistrationError{Reason: fmt.Sprintf("%s service does not accept registrations", c.kind), Refused: true}
	}

	payload, err := json.Marshal(registerRequest{StudentID: sourceID, StudentName: name, ReferenceImage: referenceImage})
	if err != nil {
		return &RegistrationError{Reason: "could not encode request", Err: err}
	}

	body, status, err := c.do(ctx, http.MethodPost, "/register", payload)
	if err != nil {
		callErr := wrapCallError(ctx, c.kind, "register", err)
		reason := "identity service unreachable"
		if errors.Is(callErr, ErrAnalysisTimeout) {
			reason = "identity service timed out"
		}
		return &RegistrationError{Reason: reason, Err: callErr}
	}

	var resp registerResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status >= http.StatusInternalServerError {
		return &RegistrationError{
			Reason: fmt.Sprintf("identity service returned status %d", status),
			Err:    &AnalysisError{Kind: c.kind, Op: "register", StatusCode: status, Err: errors.New(snippet(body))},
		}
	}
	if decodeErr != nil {
		return &RegistrationError{Reason: "invalid response from identity service", Err: decodeErr}
	}
	if status != http.StatusOK || !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = resp.Message
		}
		if reason == "" {
			reason = fmt.Sprintf("rejected with status %d", status)
		}
		return &RegistrationError{Reason: reason, Refused: true}
	}
	return nil
}

// Stats fetches GET /stats and returns the body unchanged.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/stats", nil)
	if err != nil {
		return nil, wrapCallError(ctx, c.kind, "stats", err)
	}
	if status != http.StatusOK {
		return nil, &AnalysisError{Kind: c.kind, Op: "stats", StatusCode: status, Err: errors.New(snippet(body))}
	}
	if !json.Valid(body) {
		return nil, &AnalysisError{Kind: c.kind, Op: "stats", Err: errors.New("response is not JSON")}
	}
	return json.RawMessage(body), nil
}

// do performs one request and returns the (bounded) body and status code.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// snippet trims a response body for inclusion in an error message.
func snippet(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	if s == "" {
		s = "empty response"
	}
	return s
}
