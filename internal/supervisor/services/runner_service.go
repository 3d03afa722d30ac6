// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

package services

import (
	"context"
)

// ContextRunner is a loop that runs until its context is canceled.
//
// Satisfied by *dispatch.Dispatcher, *websocket.Hub and *relay.Relay.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under the given service name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewDispatcherService wraps the analysis dispatcher.
func NewDispatcherService(dispatcher ContextRunner) *RunnerService {
	return NewRunnerService("dispatcher", dispatcher)
}

// NewHubService wraps the monitor fan-out hub.
func NewHubService(hub ContextRunner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewRelayService wraps the relay event loop.
func NewRelayService(relay ContextRunner) *RunnerService {
	return NewRunnerService("relay", relay)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String names the service in supervisor logs.
func (s *RunnerService) String() string {
	return s.name
}
