// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/proctorwatch/internal/middleware"
)

// Router sets up HTTP routes using chi.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for handler.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Handle("/metrics", promhttp.Handler())

	// WebSocket upgrades are long-lived; they skip rate limiting and
	// request metrics, which track connections elsewhere.
	r.Get("/ws/source", router.handler.WebSocketSource)
	r.Get("/ws/monitor", router.handler.WebSocketMonitor)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health/live", router.handler.HealthLive)
		r.Get("/health/ready", router.handler.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/status", router.handler.Status)
			r.Get("/sources", router.handler.Sources)
			r.Get("/sources/{id}", router.handler.SourceDetail)
			r.Post("/sources/{id}/register", router.handler.RegisterSource)
			r.Get("/services/status", router.handler.ServicesStatus)
			r.Get("/services/{kind}/stats", router.handler.ServiceStats)
		})
	})

	return r
}
