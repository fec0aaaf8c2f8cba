// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package services provides suture service wrappers for the
// long-running parts of the application.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/logging"
)

// Trainer is the orchestrator surface the retrain service drives.
// An interface here keeps the service free of engine imports.
type Trainer interface {
	Initialize(ctx context.Context) error
	Retrain(ctx context.Context, force bool) error
	ShouldRetrain(ctx context.Context) bool
}

// RetrainConfig holds retrain service configuration.
type RetrainConfig struct {
	// Interval is how often the staleness policy is evaluated.
	// Default: 1h.
	Interval time.Duration `koanf:"interval"`

	// TrainOnStartup builds the first model as soon as the service
	// starts. Default: true.
	TrainOnStartup bool `koanf:"train_on_startup"`

	// ForcedPerHour caps operator-triggered forced retrains.
	// Default: 4.
	ForcedPerHour int `koanf:"forced_per_hour"`
}

// DefaultRetrainConfig returns the default retrain service settings.
func DefaultRetrainConfig() RetrainConfig {
	return RetrainConfig{Interval: time.Hour, TrainOnStartup: true, ForcedPerHour: 4}
}

// RetrainService owns the model training lifecycle: the initial build,
// periodic staleness evaluation, and rate-limited forced retrains.
type RetrainService struct {
	trainer Trainer
	cfg     RetrainConfig
	limiter *rate.Limiter
	trigger chan struct{}
	log     zerolog.Logger
}

// NewRetrainService creates the service.
func NewRetrainService(trainer Trainer, cfg RetrainConfig) *RetrainService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.ForcedPerHour <= 0 {
		cfg.ForcedPerHour = 4
	}
	return &RetrainService{
		trainer: trainer,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.ForcedPerHour)), 1),
		trigger: make(chan struct{}, 1),
		log:     logging.With().Str("service", "retrain").Logger(),
	}
}

// Trigger requests a forced retrain. Returns false when the forced
// retrain budget is exhausted or one is already queued.
func (s *RetrainService) Trigger() bool {
	if !s.limiter.Allow() {
		s.log.Warn().Msg("forced retrain rate limit exceeded")
		return false
	}
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false // one already queued
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Bool("train_on_startup", s.cfg.TrainOnStartup).
		Msg("retrain service starting")

	if s.cfg.TrainOnStartup {
		if err := s.trainer.Initialize(ctx); err != nil {
			// The supervisor restart would rebuild from the same data,
			// so log and fall through to the schedule instead.
			s.log.Warn().Err(err).Msg("startup training failed, will retry on schedule")
		}
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("retrain service stopping")
			return ctx.Err()
		case <-ticker.C:
			if !s.trainer.ShouldRetrain(ctx) {
				continue
			}
			s.runRetrain(ctx, false)
		case <-s.trigger:
			s.runRetrain(ctx, true)
		}
	}
}

func (s *RetrainService) runRetrain(ctx context.Context, force bool) {
	err := s.trainer.Retrain(ctx, force)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrRebuildInFlight):
		s.log.Debug().Msg("retrain skipped, rebuild already in flight")
	default:
		s.log.Error().Err(err).Bool("forced", force).Msg("retrain failed")
	}
}
