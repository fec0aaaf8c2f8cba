// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation service:
// - Recommendation request outcomes and latency
// - Model retrain cycles and snapshot freshness
// - Audit pipeline delivery
// - Data provider circuit breaker state

var (
	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnpulse_recommend_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "degraded", "unknown_user", "not_ready"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learnpulse_recommend_duration_seconds",
			Help:    "End-to-end recommendation request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	DegradedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "learnpulse_degraded_responses_total",
			Help: "Total responses served in degraded mode",
		},
	)

	// Model Metrics
	RetrainsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnpulse_retrains_total",
			Help: "Total model retrain attempts by result",
		},
		[]string{"result"}, // "ok", "failed", "skipped"
	)

	RetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learnpulse_retrain_duration_seconds",
			Help:    "Model rebuild duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "learnpulse_snapshot_age_seconds",
			Help: "Age of the active model snapshot in seconds",
		},
	)

	SnapshotInteractions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "learnpulse_snapshot_interactions",
			Help: "Number of interactions the active snapshot was trained on",
		},
	)

	// Audit Metrics
	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnpulse_audit_events_total",
			Help: "Total audit events by delivery result",
		},
		[]string{"result"}, // "published", "stored", "failed"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "learnpulse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// ObserveRecommend records a completed recommendation request.
func ObserveRecommend(outcome string, start time.Time) {
	RecommendRequests.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(time.Since(start).Seconds())
}

// ObserveRetrain records a completed retrain attempt.
func ObserveRetrain(result string, start time.Time) {
	RetrainsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		RetrainDuration.Observe(time.Since(start).Seconds())
	}
}
