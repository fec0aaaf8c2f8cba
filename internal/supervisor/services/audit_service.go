// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/logging"
)

// Consumer is the drain loop of the audit pipeline.
type Consumer interface {
	Run(ctx context.Context) error
}

// AuditService supervises the audit pipeline consumer.
type AuditService struct {
	consumer Consumer
	log      zerolog.Logger
}

// NewAuditService creates the service.
func NewAuditService(consumer Consumer) *AuditService {
	return &AuditService{
		consumer: consumer,
		log:      logging.With().Str("service", "audit").Logger(),
	}
}

// Serve implements suture.Service.
func (s *AuditService) Serve(ctx context.Context) error {
	s.log.Info().Msg("audit consumer starting")
	err := s.consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error().Err(err).Msg("audit consumer stopped")
	}
	return err
}
