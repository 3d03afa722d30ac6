// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Result is the outcome of one successful analysis call.
// Implementations are GazeResult, SyntheticFaceResult and IdentityResult.
type Result interface {
	Kind() Kind
	Label() string
	Confidence() float64
	isResult()
}

// Gaze directions reported by the gaze service.
const (
	GazeLeft     = "left"
	GazeRight    = "right"
	GazeCenter   = "center"
	GazeBlinking = "blinking"
	GazeUnknown  = "unknown"
)

// Synthetic-face verdicts.
const (
	SyntheticReal   = "real"
	SyntheticFake   = "fake"
	SyntheticNoFace = "no_face"
)

// Identity verdicts.
const (
	IdentityMatch         = "match"
	IdentityNoMatch       = "no_match"
	IdentityNoFace        = "no_face"
	IdentityNotRegistered = "not_registered"
)

// GazeResult reports where the participant is looking.
type GazeResult struct {
	Direction string
	Score     float64
}

func (r GazeResult) Kind() Kind          { return KindGaze }
func (r GazeResult) Label() string       { return r.Direction }
func (r GazeResult) Confidence() float64 { return r.Score }
func (GazeResult) isResult()             {}

// SyntheticFaceResult reports whether the face in frame looks AI-generated.
type SyntheticFaceResult struct {
	Verdict string
	Score   float64
}

func (r SyntheticFaceResult) Kind() Kind          { return KindSyntheticFace }
func (r SyntheticFaceResult) Label() string       { return r.Verdict }
func (r SyntheticFaceResult) Confidence() float64 { return r.Score }
func (SyntheticFaceResult) isResult()             {}

// IdentityResult reports whether the face in frame matches the registered reference.
type IdentityResult struct {
	Verdict string
	Score   float64
}

func (r IdentityResult) Kind() Kind          { return KindIdentity }
func (r IdentityResult) Label() string       { return r.Verdict }
func (r IdentityResult) Confidence() float64 { return r.Score }
func (IdentityResult) isResult()             {}

var validLabels = map[Kind]map[string]bool{
	KindGaze: {
		GazeLeft: true, GazeRight: true, GazeCenter: true, GazeBlinking: true, GazeUnknown: true,
	},
	KindSyntheticFace: {
		SyntheticReal: true, SyntheticFake: true, SyntheticNoFace: true,
	},
	KindIdentity: {
		IdentityMatch: true, IdentityNoMatch: true, IdentityNoFace: true, IdentityNotRegistered: true,
	},
}

// analyzeResponse is the union of the per-service response bodies.
type analyzeResponse struct {
	Success          *bool    `json:"success"`
	Error            string   `json:"error"`
	GazeDirection    string   `json:"gaze_direction"`
	AIDetection      string   `json:"ai_detection"`
	FaceVerification string   `json:"face_verification"`
	Confidence       *float64 `json:"confidence"`
}

// decodeResult parses an /analyze body for the given kind. A body that
// reports success=false, an "error" label, or an unknown label is a failed
// analysis rather than a result.
func decodeResult(kind Kind, body []byte) (Result, error) {
	var resp analyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	if resp.Success != nil && !*resp.Success {
		if resp.Error == "" {
			resp.Error = "service reported failure"
		}
		return nil, fmt.Errorf("%s service: %s", kind, resp.Error)
	}

	var label string
	switch kind {
	case KindGaze:
		label = resp.GazeDirection
	case KindSyntheticFace:
		label = resp.AIDetection
	case KindIdentity:
		label = resp.FaceVerification
	default:
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}

	if !validLabels[kind][label] {
		return nil, fmt.Errorf("%s service returned unsupported label %q", kind, label)
	}

	confidence := 0.0
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}

	switch kind {
	case KindGaze:
		return GazeResult{Direction: label, Score: confidence}, nil
	case KindSyntheticFace:
		return SyntheticFaceResult{Verdict: label, Score: confidence}, nil
	default:
		return IdentityResult{Verdict: label, Score: confidence}, nil
	}
}
