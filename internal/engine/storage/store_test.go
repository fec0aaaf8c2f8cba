// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/engine/behavior"
	"github.com/learnpulse/learnpulse/internal/engine/collab"
	"github.com/learnpulse/learnpulse/internal/engine/content"
	"github.com/learnpulse/learnpulse/internal/engine/hybrid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func buildSnapshot(t *testing.T, id string, builtAt time.Time) *hybrid.Snapshot {
	t.Helper()

	interactions := []engine.InteractionRecord{
		{UserID: "alice", ContentID: 1, Status: engine.StatusCompleted, Timestamp: builtAt},
		{UserID: "bob", ContentID: 1, Status: engine.StatusCompleted, Timestamp: builtAt},
		{UserID: "bob", ContentID: 2, Status: engine.StatusInProgress, Timestamp: builtAt},
	}
	catalog := []engine.ContentItem{
		{ID: 1, Title: "Budgeting Basics", Tags: []string{"budgeting"}, Type: engine.ContentLesson, DurationMin: 15, Points: 50},
		{ID: 2, Title: "Intro to Saving", Tags: []string{"saving"}, Type: engine.ContentVideo, DurationMin: 10, Points: 40},
	}

	return &hybrid.Snapshot{
		ID:               id,
		BuiltAt:          builtAt,
		InteractionCount: len(interactions),
		Collab:           collab.Build(interactions, collab.DefaultConfig()),
		Content:          content.Build(catalog, content.DefaultConfig()),
		Predictor:        behavior.Train(nil, behavior.DefaultConfig()),
		Catalog: map[int64]engine.ContentItem{
			1: catalog[0], 2: catalog[1],
		},
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	s := openTestStore(t)
	builtAt := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, "snap-1", builtAt)

	if err := s.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != snap.ID {
		t.Errorf("loaded id = %s, want %s", got.ID, snap.ID)
	}
	if !got.BuiltAt.Equal(snap.BuiltAt) {
		t.Errorf("built_at = %v, want %v", got.BuiltAt, snap.BuiltAt)
	}
	if got.InteractionCount != snap.InteractionCount {
		t.Errorf("interaction count = %d, want %d", got.InteractionCount, snap.InteractionCount)
	}

	// The restored models must serve identical answers.
	wantRecs := snap.Collab.Recommend("alice", 5)
	gotRecs := got.Collab.Recommend("alice", 5)
	if len(wantRecs) != len(gotRecs) {
		t.Fatalf("restored collab recommends %d items, want %d", len(gotRecs), len(wantRecs))
	}
	for i := range wantRecs {
		if wantRecs[i] != gotRecs[i] {
			t.Errorf("restored rec %d = %+v, want %+v", i, gotRecs[i], wantRecs[i])
		}
	}
	if got.Catalog[1].Title != "Budgeting Basics" {
		t.Errorf("catalog entry lost: %+v", got.Catalog[1])
	}
}

func TestLoadLatestEmptyStore(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LoadLatest(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestLatestPointerFollowsNewestSave(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	if err := s.Save(buildSnapshot(t, "snap-1", base)); err != nil {
		t.Fatalf("save snap-1: %v", err)
	}
	if err := s.Save(buildSnapshot(t, "snap-2", base.Add(24*time.Hour))); err != nil {
		t.Fatalf("save snap-2: %v", err)
	}

	got, err := s.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != "snap-2" {
		t.Errorf("latest = %s, want snap-2", got.ID)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"snap-1", "snap-2", "snap-3"} {
		if err := s.Save(buildSnapshot(t, id, base.Add(time.Duration(i)*24*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	if err := s.Prune(2); err != nil {
		t.Fatalf("prune: %v", err)
	}

	metas, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("kept %d snapshots, want 2", len(metas))
	}
	if metas[0].ID != "snap-3" || metas[1].ID != "snap-2" {
		t.Errorf("kept %s and %s, want snap-3 and snap-2", metas[0].ID, metas[1].ID)
	}

	// Latest still loads after pruning.
	got, err := s.LoadLatest()
	if err != nil {
		t.Fatalf("load after prune: %v", err)
	}
	if got.ID != "snap-3" {
		t.Errorf("latest after prune = %s, want snap-3", got.ID)
	}
}

func TestChecksumMismatchDetected(t *testing.T) {
	s := openTestStore(t)
	snap := buildSnapshot(t, "snap-1", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	if err := s.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Corrupt the stored blob behind the store's back.
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(blobPrefix+"snap-1"), []byte("garbage"))
	})
	if err != nil {
		t.Fatalf("corrupt blob: %v", err)
	}

	if _, err := s.LoadLatest(); err == nil {
		t.Error("corrupted snapshot loaded without error")
	}
}
