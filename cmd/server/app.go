// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/proctorwatch/internal/analysis"
	"github.com/tomtom215/proctorwatch/internal/api"
	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/detection"
	"github.com/tomtom215/proctorwatch/internal/dispatch"
	"github.com/tomtom215/proctorwatch/internal/logging"
	"github.com/tomtom215/proctorwatch/internal/relay"
	"github.com/tomtom215/proctorwatch/internal/session"
	"github.com/tomtom215/proctorwatch/internal/supervisor"
	"github.com/tomtom215/proctorwatch/internal/supervisor/services"
)

// app holds the wired components of one server process.
type app struct {
	cfg        *config.Config
	services   *analysis.Services
	registry   *session.Registry
	dispatcher *dispatch.Dispatcher
	notifiers  *detection.Notifiers
	relay      *relay.Relay
	handler    *api.Handler
	server     *http.Server
	tree       *supervisor.SupervisorTree

	// listening receives the bound address each time the listener comes up.
	listening chan net.Addr
}

// newApp wires every component from cfg. Analysis services are probed here,
// so this blocks for up to cfg.Analysis.HealthTimeout.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	svc := analysis.NewServices(cfg.Analysis, analysis.DefaultBreakerSettings())
	failures := svc.Probe(ctx, cfg.Analysis.HealthTimeout)
	for _, kind := range analysis.Kinds {
		logging.Info().
			Str("kind", kind.String()).
			Bool("enabled", svc.Enabled(kind)).
			Bool("probe_failed", failures[kind] != nil).
			Msg("Analysis service state")
	}

	registry := session.NewRegistry()
	correlator := detection.NewCorrelator(nil)
	dispatcher := dispatch.NewDispatcher(registry, svc, correlator, dispatch.ConfigFromAnalysis(cfg.Analysis))

	notifiers := detection.NewNotifiers()
	if cfg.Alerts.Webhook.Enabled {
		notifiers.Register(detection.NewWebhookNotifier(cfg.Alerts.Webhook))
	}

	rel := relay.New(registry, dispatcher, svc, notifiers, relay.ConfigFromConfig(cfg))
	handler := api.NewHandler(rel, svc, registry, cfg)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	a := &app{
		cfg:        cfg,
		services:   svc,
		registry:   registry,
		dispatcher: dispatcher,
		notifiers:  notifiers,
		relay:      rel,
		handler:    handler,
		server:     server,
		tree:       tree,
		listening:  make(chan net.Addr, 1),
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpService := services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout)
	httpService.OnListening(a.onListening)

	tree.AddAnalysisService(services.NewDispatcherService(dispatcher))
	tree.AddMessagingService(services.NewHubService(rel.Hub()))
	tree.AddMessagingService(services.NewRelayService(rel))
	tree.AddAPIService(httpService)

	return a, nil
}

func (a *app) onListening(addr net.Addr) {
	a.handler.MarkReady()
	logging.Info().Str("addr", addr.String()).Msg("HTTP server listening")
	select {
	case a.listening <- addr:
	default:
	}
}

// run serves until ctx is canceled, then drains pending alert deliveries
// for at most the shutdown timeout.
func (a *app) run(ctx context.Context) error {
	errCh := a.tree.ServeBackground(ctx)

	var runErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		runErr = err
	}

	unstopped, _ := a.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	a.notifiers.Close(drainCtx)
	return runErr
}
