// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

/*
Package supervisor runs the relay's long-lived goroutines under a
suture/v4 supervisor tree.

	proctorwatch (root)
	├── analysis-layer
	│   └── dispatcher
	├── messaging-layer
	│   ├── websocket-hub
	│   └── relay
	└── api-layer
	    └── http-server

Each service is a suture.Service: Serve(ctx) blocks until ctx is canceled
and returns ctx.Err() on a clean stop. A service that returns any other
error, or panics, is restarted with suture's backoff. The wrappers in the
services subpackage adapt RunWithContext loops and *http.Server.

Supervisor events (restarts, backoff, panics) are logged through
sutureslog, which takes a *slog.Logger. logging.NewSlogLogger bridges it to
the process zerolog stream:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAnalysisService(services.NewDispatcherService(dispatcher))
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewRelayService(rel))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, timeout))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
