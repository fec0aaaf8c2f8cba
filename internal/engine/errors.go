// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package engine

import "errors"

var (
	// ErrUnknownUser indicates no profile exists for the requested user.
	// Surfaced to callers as a not-found outcome, never retried.
	ErrUnknownUser = errors.New("unknown user")

	// ErrDataUnavailable indicates the backing store or catalog could not
	// be reached. Recoverable; triggers cold-start or degraded behavior.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrRebuildFailed indicates a model rebuild did not complete. The
	// previously active snapshot stays in service.
	ErrRebuildFailed = errors.New("model rebuild failed")

	// ErrRebuildInFlight indicates a rebuild was requested while another
	// one is already running. The request collapses into a no-op.
	ErrRebuildInFlight = errors.New("rebuild already in flight")
)
