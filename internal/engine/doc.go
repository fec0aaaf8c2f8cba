// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package engine defines the shared domain model for the recommendation
// system: user profiles, content items, interaction history, behavioral
// features, predictions, nudges, and the data provider contract the
// engines consume.
//
// The sub-packages implement the individual engines:
//
//   - collab:   user-user collaborative filtering over the interaction matrix
//   - content:  TF-IDF content-based filtering with difficulty gating
//   - behavior: engagement/completion/churn prediction with cold-start fallback
//   - nudge:    segment-driven motivational message selection
//   - hybrid:   the orchestrator that fuses all of the above behind a
//     versioned, atomically swapped model snapshot
//   - storage:  snapshot persistence for warm restarts
package engine
