// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package collab

import (
	"math"
	"testing"
	"time"

	"github.com/learnpulse/learnpulse/internal/engine"
)

func rec(user string, content int64, status engine.InteractionStatus) engine.InteractionRecord {
	return engine.InteractionRecord{
		UserID:    user,
		ContentID: content,
		Status:    status,
		Timestamp: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildExcludesInactiveUsersAndItems(t *testing.T) {
	t.Parallel()

	m := Build([]engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("alice", 2, engine.StatusInProgress),
		rec("bob", 1, engine.StatusCompleted),
	}, DefaultConfig())

	if got, want := len(m.Users), 2; got != want {
		t.Fatalf("users = %d, want %d", got, want)
	}
	if got, want := len(m.Items), 2; got != want {
		t.Fatalf("items = %d, want %d", got, want)
	}
	if _, ok := m.UserIndex["carol"]; ok {
		t.Error("carol has no interactions but is in the matrix")
	}
}

func TestBuildKeepsHighestScoreForDuplicates(t *testing.T) {
	t.Parallel()

	// Same pair seen in both states; completed must win regardless of order.
	m := Build([]engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("alice", 1, engine.StatusInProgress),
	}, DefaultConfig())

	u := m.UserIndex["alice"]
	c := m.ItemIndex[1]
	if got := m.Ratings[u][c]; got != 1.0 {
		t.Errorf("rating = %v, want 1.0", got)
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	t.Parallel()

	interactions := []engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("alice", 2, engine.StatusCompleted),
		rec("alice", 3, engine.StatusInProgress),
		rec("bob", 1, engine.StatusCompleted),
		rec("bob", 2, engine.StatusInProgress),
		rec("carol", 3, engine.StatusCompleted),
		rec("carol", 4, engine.StatusCompleted),
		rec("dave", 2, engine.StatusCompleted),
		rec("dave", 4, engine.StatusInProgress),
	}
	m := Build(interactions, DefaultConfig())

	for _, a := range m.Users {
		for _, b := range m.Users {
			ab, ba := m.Similarity(a, b), m.Similarity(b, a)
			if math.Abs(ab-ba) > 1e-12 {
				t.Errorf("sim(%s,%s)=%v but sim(%s,%s)=%v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestRecommendColdStartReturnsEmpty(t *testing.T) {
	t.Parallel()

	m := Build([]engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("bob", 1, engine.StatusCompleted),
	}, DefaultConfig())

	if got := m.Recommend("nobody", 5); len(got) != 0 {
		t.Errorf("recommendations for unknown user = %v, want empty", got)
	}
}

func TestRecommendUsesNeighborCompletions(t *testing.T) {
	t.Parallel()

	// alice and bob agree on items 1 and 2; bob additionally completed
	// item 3. carol is dissimilar noise. alice should be recommended
	// item 3 with score = bob's rating x sim(alice, bob).
	interactions := []engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("alice", 2, engine.StatusCompleted),
		rec("bob", 1, engine.StatusCompleted),
		rec("bob", 2, engine.StatusCompleted),
		rec("bob", 3, engine.StatusCompleted),
		rec("carol", 4, engine.StatusCompleted),
	}
	m := Build(interactions, DefaultConfig())

	got := m.Recommend("alice", 5)
	if len(got) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	if got[0].ContentID != 3 {
		t.Fatalf("top recommendation = %d, want 3", got[0].ContentID)
	}

	want := 1.0 * m.Similarity("alice", "bob")
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}
}

func TestRecommendSkipsItemsUserAlreadyRated(t *testing.T) {
	t.Parallel()

	interactions := []engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("alice", 2, engine.StatusInProgress),
		rec("bob", 1, engine.StatusCompleted),
		rec("bob", 2, engine.StatusCompleted),
	}
	m := Build(interactions, DefaultConfig())

	for _, item := range m.Recommend("alice", 5) {
		if item.ContentID == 1 || item.ContentID == 2 {
			t.Errorf("recommended item %d, which alice already rated", item.ContentID)
		}
	}
}

func TestRecommendTieBreaksByAscendingContentID(t *testing.T) {
	t.Parallel()

	// bob completed items 30 and 10; both accumulate the same score for
	// alice, so the ranking must order 10 before 30. The in-progress
	// item keeps bob's row from having zero variance.
	interactions := []engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("alice", 2, engine.StatusCompleted),
		rec("bob", 1, engine.StatusCompleted),
		rec("bob", 2, engine.StatusCompleted),
		rec("bob", 30, engine.StatusCompleted),
		rec("bob", 10, engine.StatusCompleted),
		rec("bob", 99, engine.StatusInProgress),
	}
	m := Build(interactions, DefaultConfig())

	got := m.Recommend("alice", 5)
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(got))
	}
	if math.Abs(got[0].Score-got[1].Score) > 1e-12 {
		t.Fatalf("expected a tie, got scores %v and %v", got[0].Score, got[1].Score)
	}
	if got[0].ContentID != 10 || got[1].ContentID != 30 {
		t.Errorf("tie order = [%d %d], want [10 30]", got[0].ContentID, got[1].ContentID)
	}
}

func TestRecommendHonorsK(t *testing.T) {
	t.Parallel()

	interactions := []engine.InteractionRecord{
		rec("alice", 1, engine.StatusCompleted),
		rec("bob", 1, engine.StatusCompleted),
		rec("bob", 2, engine.StatusCompleted),
		rec("bob", 3, engine.StatusCompleted),
		rec("bob", 4, engine.StatusInProgress),
	}
	m := Build(interactions, DefaultConfig())

	got := m.Recommend("alice", 1)
	if len(got) != 1 {
		t.Errorf("got %d recommendations, want exactly 1", len(got))
	}
}

func TestBuildEmptyInteractions(t *testing.T) {
	t.Parallel()

	m := Build(nil, DefaultConfig())
	if len(m.Users) != 0 || len(m.Items) != 0 {
		t.Errorf("empty build produced users=%d items=%d", len(m.Users), len(m.Items))
	}
	if got := m.Recommend("anyone", 5); len(got) != 0 {
		t.Errorf("recommendations from empty model = %v, want empty", got)
	}
}
