// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/logging"
	"github.com/learnpulse/learnpulse/internal/metrics"
)

// BreakerProvider wraps an engine.DataProvider with a circuit breaker.
// When the backend fails repeatedly the circuit opens and calls fail
// fast with engine.ErrDataUnavailable, which the orchestrator already
// degrades on, instead of piling up slow requests.
type BreakerProvider struct {
	inner engine.DataProvider
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerProvider wraps inner with a named breaker.
func NewBreakerProvider(inner engine.DataProvider, name string) *BreakerProvider {
	log := logging.With().Str("component", "breaker").Str("breaker", name).Logger()

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,           // probes allowed in half-open state
		Interval:    time.Minute, // closed-state count reset window
		Timeout:     30 * time.Second,

		// Open after 10+ requests with a 60%+ failure rate.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},

		// A missing user is an answer, not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, engine.ErrUnknownUser)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &BreakerProvider{inner: inner, cb: cb}
}

// State returns the current breaker state.
func (p *BreakerProvider) State() gobreaker.State {
	return p.cb.State()
}

func (p *BreakerProvider) FetchInteractions(ctx context.Context, userID string) ([]engine.InteractionRecord, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return p.inner.FetchInteractions(ctx, userID)
	})
	if err != nil {
		return nil, translate(err)
	}
	out, _ := v.([]engine.InteractionRecord)
	return out, nil
}

func (p *BreakerProvider) FetchCatalog(ctx context.Context) ([]engine.ContentItem, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return p.inner.FetchCatalog(ctx)
	})
	if err != nil {
		return nil, translate(err)
	}
	out, _ := v.([]engine.ContentItem)
	return out, nil
}

func (p *BreakerProvider) FetchUserProfile(ctx context.Context, userID string) (engine.UserProfile, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return p.inner.FetchUserProfile(ctx, userID)
	})
	if err != nil {
		return engine.UserProfile{}, translate(err)
	}
	out, _ := v.(engine.UserProfile)
	return out, nil
}

func (p *BreakerProvider) FetchEffectivenessHistory(ctx context.Context, windowDays int) ([]engine.EffectivenessRecord, error) {
	v, err := p.cb.Execute(func() (any, error) {
		return p.inner.FetchEffectivenessHistory(ctx, windowDays)
	})
	if err != nil {
		return nil, translate(err)
	}
	out, _ := v.([]engine.EffectivenessRecord)
	return out, nil
}

func (p *BreakerProvider) AppendAuditEvent(ctx context.Context, event engine.AuditEvent) error {
	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.inner.AppendAuditEvent(ctx, event)
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

// translate maps breaker rejections onto the engines' error taxonomy.
func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", engine.ErrDataUnavailable, err)
	}
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
