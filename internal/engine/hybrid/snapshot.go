// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package hybrid

import (
	"time"

	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/engine/behavior"
	"github.com/learnpulse/learnpulse/internal/engine/collab"
	"github.com/learnpulse/learnpulse/internal/engine/content"
)

// Snapshot is one immutable model version: everything the request path
// needs, built from a single data pull. Exactly one snapshot is active
// at a time; a new one replaces it with a single pointer swap and the
// old one keeps serving in-flight readers until they finish.
//
// Fields are exported for gob persistence; never mutate a snapshot
// after build.
type Snapshot struct {
	ID               string
	BuiltAt          time.Time
	InteractionCount int

	Collab    *collab.Model
	Content   *content.Model
	Predictor *behavior.Model

	// Catalog maps content id to item for title lookup during fusion.
	Catalog map[int64]engine.ContentItem
}

// newSnapshot builds a complete model version from raw data. Pure
// computation; safe to run while an older snapshot serves traffic.
func newSnapshot(interactions []engine.InteractionRecord, catalog []engine.ContentItem, cohort []engine.BehavioralFeatures, cfg Config, builtAt time.Time) *Snapshot {
	s := &Snapshot{
		ID:               uuid.NewString(),
		BuiltAt:          builtAt,
		InteractionCount: len(interactions),
		Collab:           collab.Build(interactions, cfg.Collab),
		Content:          content.Build(catalog, cfg.Content),
		Predictor:        behavior.Train(cohort, cfg.Behavior),
		Catalog:          make(map[int64]engine.ContentItem, len(catalog)),
	}
	for _, item := range catalog {
		s.Catalog[item.ID] = item
	}
	return s
}

// Age returns how long the snapshot has been serving as of now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.BuiltAt)
}
