// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package middleware provides HTTP middleware for the relay's API surface.

Key Components:

  - RequestID: accepts or generates X-Request-ID and attaches request and
    correlation ids to the logging context
  - PrometheusMetrics: request count, duration and in-flight instrumentation
    labelled by chi route pattern

Both use the func(http.Handler) http.Handler shape accepted by chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Group(func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/api/v1/status", handler.Status)
	})

Route patterns ("/api/v1/sources/{id}/register") rather than raw paths are
used as the endpoint label so that source ids do not inflate metric
cardinality. Requests that match no route are recorded as "unmatched".
*/
package middleware
