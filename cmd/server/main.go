// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/proctorwatch/internal/config"
	"github.com/tomtom215/proctorwatch/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Float64("max_frame_rate", cfg.Relay.MaxFrameRate).
		Int64("max_frame_bytes", cfg.Relay.MaxFrameBytes).
		Dur("analysis_min_interval", cfg.Analysis.MinInterval).
		Msg("Starting ProctorWatch")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("API rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.HasWildcardCORS() && cfg.IsProduction() {
		logging.Warn().Msg("CORS_ORIGINS=* in production: any website can open monitor connections")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := a.run(ctx); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}
