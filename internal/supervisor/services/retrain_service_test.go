// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// stubTrainer counts lifecycle calls.
type stubTrainer struct {
	initCalls    atomic.Int32
	retrainCalls atomic.Int32
	forcedCalls  atomic.Int32
	stale        atomic.Bool
}

func (s *stubTrainer) Initialize(context.Context) error {
	s.initCalls.Add(1)
	return nil
}

func (s *stubTrainer) Retrain(_ context.Context, force bool) error {
	s.retrainCalls.Add(1)
	if force {
		s.forcedCalls.Add(1)
	}
	return nil
}

func (s *stubTrainer) ShouldRetrain(context.Context) bool {
	return s.stale.Load()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestRetrainServiceTrainsOnStartup(t *testing.T) {
	t.Parallel()

	trainer := &stubTrainer{}
	svc := NewRetrainService(trainer, RetrainConfig{Interval: time.Hour, TrainOnStartup: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, func() bool { return trainer.initCalls.Load() == 1 })
}

func TestRetrainServiceEvaluatesStaleness(t *testing.T) {
	t.Parallel()

	trainer := &stubTrainer{}
	svc := NewRetrainService(trainer, RetrainConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	// Not stale: ticks pass without retraining.
	time.Sleep(50 * time.Millisecond)
	if got := trainer.retrainCalls.Load(); got != 0 {
		t.Fatalf("retrained %d times while fresh, want 0", got)
	}

	trainer.stale.Store(true)
	waitFor(t, func() bool { return trainer.retrainCalls.Load() > 0 })
}

func TestRetrainServiceTrigger(t *testing.T) {
	t.Parallel()

	trainer := &stubTrainer{}
	svc := NewRetrainService(trainer, RetrainConfig{Interval: time.Hour, ForcedPerHour: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	if !svc.Trigger() {
		t.Fatal("first trigger rejected")
	}
	waitFor(t, func() bool { return trainer.forcedCalls.Load() == 1 })
}

func TestRetrainServiceTriggerRateLimited(t *testing.T) {
	t.Parallel()

	trainer := &stubTrainer{}
	svc := NewRetrainService(trainer, RetrainConfig{Interval: time.Hour, ForcedPerHour: 1})

	// Burst of 1: the second immediate trigger must be rejected
	// without the service even running.
	if !svc.Trigger() {
		t.Fatal("first trigger rejected")
	}
	if svc.Trigger() {
		t.Error("second trigger within the hour was accepted")
	}
}
