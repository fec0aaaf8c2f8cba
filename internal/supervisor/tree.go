// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package supervisor wires the long-running services into a suture
// supervision tree so a crashing service restarts with backoff instead
// of taking the process down.
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/learnpulse/learnpulse/internal/logging"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering
	// backoff. Default: 5.
	FailureThreshold float64 `koanf:"failure_threshold"`

	// FailureDecay is the rate at which failures decay, in seconds.
	// Default: 30.
	FailureDecay float64 `koanf:"failure_decay"`

	// FailureBackoff is how long to wait once the threshold is
	// exceeded. Default: 15s.
	FailureBackoff time.Duration `koanf:"failure_backoff"`

	// ShutdownTimeout is the maximum wait for graceful shutdown.
	// Default: 10s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DefaultTreeConfig matches suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the root supervisor for the LearnPulse services.
type Tree struct {
	root *suture.Supervisor
}

// NewTree builds the supervision tree. The suture event hook logs
// through the global zerolog instance via the slog adapter.
func NewTree(cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5.0
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30.0
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()

	root := suture.New("learnpulse", suture.Spec{
		EventHook:        hook,
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})

	return &Tree{root: root}
}

// Add registers a service with the root supervisor.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve runs the tree until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
