// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package config

import (
	"fmt"
	"net/url"
)

// parseHTTPURL parses rawURL and requires an http(s) scheme and a host.
func parseHTTPURL(rawURL, fieldName string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%s host is required", fieldName)
	}
	return u, nil
}

// validateHTTPURL checks an analysis service base URL. The client appends
// /health, /analyze, /register and /stats itself, so only a bare base
// (optionally with a trailing slash) is accepted.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := parseHTTPURL(rawURL, fieldName)
	if err != nil {
		return err
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

// validateWebhookURL checks an alert webhook target. Paths and queries are
// kept as given.
func validateWebhookURL(rawURL, fieldName string) error {
	_, err := parseHTTPURL(rawURL, fieldName)
	return err
}
