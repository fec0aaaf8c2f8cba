// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Command server runs the LearnPulse recommendation service: it wires
// the data provider, audit pipeline, and hybrid engine under a suture
// supervision tree and persists model snapshots between restarts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/audit"
	"github.com/learnpulse/learnpulse/internal/config"
	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/engine/hybrid"
	"github.com/learnpulse/learnpulse/internal/engine/storage"
	"github.com/learnpulse/learnpulse/internal/logging"
	"github.com/learnpulse/learnpulse/internal/store"
	"github.com/learnpulse/learnpulse/internal/supervisor"
	"github.com/learnpulse/learnpulse/internal/supervisor/services"
)

// Set via -ldflags at release build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	seedDemo := flag.Bool("demo", false, "seed the in-memory store with demo learners and content")
	flag.Parse()

	if *showVersion {
		fmt.Printf("learnpulse %s (%s)\n", version, commit)
		return
	}

	if err := run(*seedDemo); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(demo bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(cfg.Logging)

	log := logging.With().Str("component", "main").Logger()
	log.Info().
		Str("version", version).
		Str("commit", commit).
		Str("storage_dir", cfg.Storage.Dir).
		Msg("learnpulse starting")

	snapshots, err := storage.Open(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if cerr := snapshots.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("snapshot store close failed")
		}
	}()

	mem := store.NewMemoryStore()
	if demo {
		seed(mem)
		log.Info().Msg("demo dataset seeded")
	}
	provider := store.NewBreakerProvider(mem, "primary")

	pipeline := audit.NewPipeline(provider)
	defer func() {
		if cerr := pipeline.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("audit pipeline close failed")
		}
	}()

	orch := hybrid.New(provider, pipeline, cfg.Engine)

	// Warm start from the last persisted snapshot so the first requests
	// after a restart are served from a trained model.
	if snap, lerr := snapshots.LoadLatest(); lerr == nil {
		orch.Restore(snap)
		log.Info().
			Str("snapshot_id", snap.ID).
			Time("built_at", snap.BuiltAt).
			Msg("restored model snapshot")
	} else if !errors.Is(lerr, storage.ErrNoSnapshot) {
		log.Warn().Err(lerr).Msg("snapshot restore failed, starting cold")
	}

	trainer := &persistingTrainer{
		orch:  orch,
		store: snapshots,
		keep:  cfg.Storage.KeepSnapshots,
		log:   logging.With().Str("component", "snapshot-persist").Logger(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(cfg.Supervisor)
	tree.Add(services.NewRetrainService(trainer, cfg.Retrain))
	tree.Add(services.NewAuditService(pipeline))
	if cfg.Metrics.Enabled {
		tree.Add(services.NewMetricsService(cfg.Metrics.Addr))
	}

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("learnpulse stopped")
	return err
}

// persistingTrainer decorates the orchestrator's training lifecycle with
// snapshot persistence: every build that activates a new snapshot is
// saved to Badger and old snapshots are pruned. Persistence failures are
// logged but never fail the retrain, the in-memory model stays usable.
type persistingTrainer struct {
	orch  *hybrid.Orchestrator
	store *storage.Store
	keep  int
	log   zerolog.Logger
}

func (t *persistingTrainer) Initialize(ctx context.Context) error {
	if err := t.orch.Initialize(ctx); err != nil {
		return err
	}
	t.persist()
	return nil
}

func (t *persistingTrainer) Retrain(ctx context.Context, force bool) error {
	before := snapshotID(t.orch.Active())
	if err := t.orch.Retrain(ctx, force); err != nil {
		return err
	}
	if snapshotID(t.orch.Active()) != before {
		t.persist()
	}
	return nil
}

func (t *persistingTrainer) ShouldRetrain(ctx context.Context) bool {
	return t.orch.ShouldRetrain(ctx)
}

func (t *persistingTrainer) persist() {
	snap := t.orch.Active()
	if snap == nil {
		return
	}
	if err := t.store.Save(snap); err != nil {
		t.log.Error().Err(err).Str("snapshot_id", snap.ID).Msg("snapshot save failed")
		return
	}
	if err := t.store.Prune(t.keep); err != nil {
		t.log.Warn().Err(err).Msg("snapshot prune failed")
	}
	t.log.Debug().Str("snapshot_id", snap.ID).Msg("snapshot persisted")
}

func snapshotID(snap *hybrid.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.ID
}

// seed populates the in-memory store with a small demo cohort so a fresh
// instance has enough data to train on.
func seed(mem *store.MemoryStore) {
	now := time.Now()

	catalog := []engine.ContentItem{
		{ID: 1, Title: "Intro to Algebra", Type: engine.ContentLesson, Difficulty: engine.DifficultyBeginner, DurationMin: 15, Points: 50, Tags: []string{"math", "algebra", "foundations"}},
		{ID: 2, Title: "Linear Equations Walkthrough", Type: engine.ContentVideo, Difficulty: engine.DifficultyBeginner, DurationMin: 12, Points: 40, Tags: []string{"math", "algebra", "equations"}},
		{ID: 3, Title: "Fractions Practice Set", Type: engine.ContentChallenge, Difficulty: engine.DifficultyBeginner, DurationMin: 10, Points: 60, Tags: []string{"math", "fractions", "practice"}},
		{ID: 4, Title: "Geometry Fundamentals", Type: engine.ContentLesson, Difficulty: engine.DifficultyIntermediate, DurationMin: 25, Points: 80, Tags: []string{"math", "geometry"}},
		{ID: 5, Title: "Proof Techniques", Type: engine.ContentArticle, Difficulty: engine.DifficultyIntermediate, DurationMin: 30, Points: 100, Tags: []string{"math", "proofs", "logic"}},
		{ID: 6, Title: "Trigonometry Challenge", Type: engine.ContentChallenge, Difficulty: engine.DifficultyAdvanced, DurationMin: 45, Points: 150, Tags: []string{"math", "trigonometry"}},
		{ID: 7, Title: "Statistics in Daily Life", Type: engine.ContentVideo, Difficulty: engine.DifficultyIntermediate, DurationMin: 18, Points: 70, Tags: []string{"math", "statistics", "applied"}},
		{ID: 8, Title: "Probability Puzzles", Type: engine.ContentChallenge, Difficulty: engine.DifficultyIntermediate, DurationMin: 20, Points: 90, Tags: []string{"math", "probability", "puzzles"}},
	}
	for _, item := range catalog {
		mem.PutContent(item)
	}

	profiles := []engine.UserProfile{
		{UserID: "demo-ada", LearningStyle: "visual", TimeHorizon: "semester", PreferredTypes: []engine.ContentType{engine.ContentVideo}, Topics: []string{"algebra", "geometry"}, CompletedIDs: []int64{1, 2}, InProgressIDs: []int64{4}},
		{UserID: "demo-grace", LearningStyle: "reading", TimeHorizon: "month", PreferredTypes: []engine.ContentType{engine.ContentArticle, engine.ContentLesson}, Topics: []string{"proofs", "logic"}, CompletedIDs: []int64{1, 4, 5}},
		{UserID: "demo-alan", LearningStyle: "practical", TimeHorizon: "week", PreferredTypes: []engine.ContentType{engine.ContentChallenge}, Topics: []string{"puzzles", "probability"}, CompletedIDs: []int64{3}, InProgressIDs: []int64{8}},
	}
	for _, p := range profiles {
		mem.PutProfile(p)
	}

	interactions := []struct {
		user   string
		item   int64
		status engine.InteractionStatus
		days   int
		mins   float64
	}{
		{"demo-ada", 1, engine.StatusCompleted, 20, 14},
		{"demo-ada", 2, engine.StatusCompleted, 14, 12},
		{"demo-ada", 4, engine.StatusInProgress, 2, 8},
		{"demo-grace", 1, engine.StatusCompleted, 30, 16},
		{"demo-grace", 5, engine.StatusCompleted, 12, 28},
		{"demo-grace", 4, engine.StatusCompleted, 6, 24},
		{"demo-alan", 3, engine.StatusCompleted, 9, 11},
		{"demo-alan", 8, engine.StatusInProgress, 1, 7},
		{"demo-alan", 6, engine.StatusNotStarted, 4, 3},
	}
	for _, it := range interactions {
		mem.AddInteraction(engine.InteractionRecord{
			UserID:       it.user,
			ContentID:    it.item,
			Status:       it.status,
			TimeSpentMin: it.mins,
			Timestamp:    now.AddDate(0, 0, -it.days),
		})
	}
}
