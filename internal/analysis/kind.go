// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package analysis

import "strings"

// Kind identifies an analysis service.
type Kind string

const (
	KindGaze          Kind = "gaze"
	KindSyntheticFace Kind = "synthetic_face"
	KindIdentity      Kind = "identity"
)

// Kinds lists every analysis kind in dispatch order.
var Kinds = []Kind{KindGaze, KindSyntheticFace, KindIdentity}

func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindGaze, KindSyntheticFace, KindIdentity:
		return true
	}
	return false
}

// ParseKind resolves a kind from its canonical name or a common alias.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaze", "gaze_tracking":
		return KindGaze, true
	case "synthetic_face", "synthetic-face", "ai_detection", "ai-detection":
		return KindSyntheticFace, true
	case "identity", "face_recognition", "face-recognition":
		return KindIdentity, true
	}
	return "", false
}
