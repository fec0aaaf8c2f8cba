// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package store provides data provider implementations: an in-memory
// store for development and tests, and a circuit-breaker wrapper that
// shields the engines from a failing backend.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/learnpulse/learnpulse/internal/engine"
)

// MemoryStore is a thread-safe in-memory engine.DataProvider. It backs
// the development server and doubles as a seedable test fixture.
type MemoryStore struct {
	mu            sync.RWMutex
	interactions  []engine.InteractionRecord
	catalog       map[int64]engine.ContentItem
	profiles      map[string]engine.UserProfile
	effectiveness []engine.EffectivenessRecord
	audit         []engine.AuditEvent
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		catalog:  make(map[int64]engine.ContentItem),
		profiles: make(map[string]engine.UserProfile),
	}
}

// PutProfile adds or replaces a user profile.
func (s *MemoryStore) PutProfile(p engine.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// PutContent adds or replaces a catalog item.
func (s *MemoryStore) PutContent(item engine.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[item.ID] = item
}

// AddInteraction appends an interaction event. History is append-only.
func (s *MemoryStore) AddInteraction(it engine.InteractionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, it)
}

// AddEffectiveness appends a nudge outcome observation.
func (s *MemoryStore) AddEffectiveness(rec engine.EffectivenessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effectiveness = append(s.effectiveness, rec)
}

// FetchInteractions returns all interactions, or one user's history.
func (s *MemoryStore) FetchInteractions(_ context.Context, userID string) ([]engine.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID == "" {
		return append([]engine.InteractionRecord(nil), s.interactions...), nil
	}
	if _, ok := s.profiles[userID]; !ok {
		return nil, engine.ErrUnknownUser
	}
	var out []engine.InteractionRecord
	for _, it := range s.interactions {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

// FetchCatalog returns all content items.
func (s *MemoryStore) FetchCatalog(_ context.Context) ([]engine.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.ContentItem, 0, len(s.catalog))
	for _, item := range s.catalog {
		out = append(out, item)
	}
	return out, nil
}

// FetchUserProfile returns one profile or engine.ErrUnknownUser.
func (s *MemoryStore) FetchUserProfile(_ context.Context, userID string) (engine.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return engine.UserProfile{}, engine.ErrUnknownUser
	}
	return p, nil
}

// FetchEffectivenessHistory returns outcomes within the trailing window.
func (s *MemoryStore) FetchEffectivenessHistory(_ context.Context, windowDays int) ([]engine.EffectivenessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().AddDate(0, 0, -windowDays)
	var out []engine.EffectivenessRecord
	for _, rec := range s.effectiveness {
		if !rec.RecordedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AppendAuditEvent records a served nudge.
func (s *MemoryStore) AppendAuditEvent(_ context.Context, event engine.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, event)
	return nil
}

// AuditEvents returns a copy of all recorded audit events.
func (s *MemoryStore) AuditEvents() []engine.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]engine.AuditEvent(nil), s.audit...)
}
