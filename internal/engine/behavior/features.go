// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package behavior derives per-user behavioral features from interaction
// history and predicts engagement, completion probability, and churn
// risk. A fitted model serves users once enough training data exists;
// everyone else gets a deterministic cold-start estimate.
package behavior

import (
	"sort"
	"time"

	"github.com/learnpulse/learnpulse/internal/engine"
)

// sessionGap separates two events into distinct sessions.
const sessionGap = 30 * time.Minute

// velocityWindow is the trailing window for learning velocity.
const velocityWindow = 7 * 24 * time.Hour

// DeriveFeatures aggregates one user's interaction history into the
// scalar feature bag. The profile contributes the categorical fields.
func DeriveFeatures(interactions []engine.InteractionRecord, profile engine.UserProfile, now time.Time) engine.BehavioralFeatures {
	f := engine.BehavioralFeatures{
		TimeHorizon:    profile.TimeHorizon,
		LearningStyle:  profile.LearningStyle,
		PreferredTypes: profile.PreferredTypes,
	}
	if len(interactions) == 0 {
		return f
	}

	sorted := make([]engine.InteractionRecord, len(interactions))
	copy(sorted, interactions)
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Timestamp.Before(sorted[b].Timestamp)
	})

	contentSeen := make(map[int64]struct{})
	completedSeen := make(map[int64]struct{})
	daysSeen := make(map[string]struct{})
	var totalTime float64
	var velocity int

	for _, it := range sorted {
		contentSeen[it.ContentID] = struct{}{}
		daysSeen[it.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
		totalTime += it.TimeSpentMin

		if it.Status == engine.StatusCompleted {
			completedSeen[it.ContentID] = struct{}{}
			if now.Sub(it.Timestamp) <= velocityWindow {
				velocity++
			}
		}
	}

	f.TotalContent = len(contentSeen)
	f.CompletedContent = len(completedSeen)
	f.TotalEvents = len(sorted)
	f.ActiveDays = len(daysSeen)
	f.AvgTimeSpentMin = totalTime / float64(len(sorted))
	if f.TotalContent > 0 {
		f.CompletionRate = float64(f.CompletedContent) / float64(f.TotalContent)
	}
	f.LearningVelocity = float64(velocity)
	f.DaysSinceLast = now.Sub(sorted[len(sorted)-1].Timestamp).Hours() / 24
	f.SessionCount = countSessions(sorted)

	return f
}

// preferredTypesLimit caps how many content types DerivePreferredTypes
// reports.
const preferredTypesLimit = 3

// DerivePreferredTypes ranks content types by the user's completion
// events, most completed first, ties broken by type name. Interactions
// whose content is missing from the catalog are skipped.
func DerivePreferredTypes(interactions []engine.InteractionRecord, catalog map[int64]engine.ContentItem) []engine.ContentType {
	counts := make(map[engine.ContentType]int)
	for _, it := range interactions {
		if it.Status != engine.StatusCompleted {
			continue
		}
		item, ok := catalog[it.ContentID]
		if !ok {
			continue
		}
		counts[item.Type]++
	}
	if len(counts) == 0 {
		return nil
	}

	types := make([]engine.ContentType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(a, b int) bool {
		if counts[types[a]] != counts[types[b]] {
			return counts[types[a]] > counts[types[b]]
		}
		return types[a] < types[b]
	})
	if len(types) > preferredTypesLimit {
		types = types[:preferredTypesLimit]
	}
	return types
}

// countSessions counts event runs separated by more than sessionGap.
// Input must be sorted by timestamp.
func countSessions(sorted []engine.InteractionRecord) int {
	if len(sorted) == 0 {
		return 0
	}
	sessions := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) > sessionGap {
			sessions++
		}
	}
	return sessions
}
