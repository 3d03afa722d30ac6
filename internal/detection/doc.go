// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package detection turns analysis results into proctoring alerts.

The Correlator is stateless. After every successful analysis the caller
appends the result to the source's history and calls Evaluate with the
updated window; the correlator walks a fixed rule table and returns every
alert whose condition holds.

# Rule Table

	kind            condition                         severity  type
	gaze            5 of last 5 left/right            warning   looking_away
	gaze            50 of last 50 blinking            info      excessive_blinking
	synthetic_face  current is fake                   danger    ai_generated_content
	synthetic_face  2 of last 3 fake                  danger    repeated_ai_detection
	synthetic_face  3 of last 3 no_face               warning   no_face_detected
	identity        current is no_match               danger    identity_mismatch
	identity        2 of last 3 no_match              danger    repeated_identity_failure
	identity        3 of last 3 no_face               warning   no_face_detected

Windowed rules count over the newest min(window, len(history)) entries and
are only considered when the newest entry carries one of the rule's labels.
There is no dedup: a condition that stays true alerts again on the next
matching result.

With the default history capacity of 10 the excessive_blinking window can
never fill, so the rule does not fire.

# Notifiers

Notifiers receive every alert asynchronously. WebhookNotifier POSTs a JSON
envelope to a configured URL with a minimum spacing between sends.
*/
package detection
