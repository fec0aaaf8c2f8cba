// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/logging"
)

// MetricsService serves the Prometheus scrape endpoint.
type MetricsService struct {
	addr string
	log  zerolog.Logger
}

// NewMetricsService creates the service. addr is the listen address,
// e.g. ":9090".
func NewMetricsService(addr string) *MetricsService {
	return &MetricsService{
		addr: addr,
		log:  logging.With().Str("service", "metrics").Logger(),
	}
}

// Serve implements suture.Service.
func (s *MetricsService) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("metrics endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("metrics server shutdown")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
