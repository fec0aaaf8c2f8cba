// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package engine

import "context"

// DataProvider is the store-facing contract the engines consume. The
// serving layer, schema, and transport behind it are collaborators the
// engines never see directly.
type DataProvider interface {
	// FetchInteractions returns interaction history. An empty userID
	// returns all interactions (used for training); a non-empty userID
	// returns that user's history and ErrUnknownUser if no profile exists.
	FetchInteractions(ctx context.Context, userID string) ([]InteractionRecord, error)

	// FetchCatalog returns all active content items.
	FetchCatalog(ctx context.Context) ([]ContentItem, error)

	// FetchUserProfile returns the profile snapshot for one user, or
	// ErrUnknownUser.
	FetchUserProfile(ctx context.Context, userID string) (UserProfile, error)

	// FetchEffectivenessHistory returns nudge outcomes recorded within
	// the trailing windowDays.
	FetchEffectivenessHistory(ctx context.Context, windowDays int) ([]EffectivenessRecord, error)

	// AppendAuditEvent records a served nudge. Fire-and-forget from the
	// caller's perspective; failures must not fail a recommendation.
	AppendAuditEvent(ctx context.Context, event AuditEvent) error
}

// AuditSink accepts audit events for asynchronous delivery.
type AuditSink interface {
	Publish(ctx context.Context, event AuditEvent) error
}
