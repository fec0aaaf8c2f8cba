// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package hybrid

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/learnpulse/learnpulse/internal/engine"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

// mockDataProvider is an in-memory engine.DataProvider with injectable
// failures.
type mockDataProvider struct {
	mu           sync.Mutex
	interactions []engine.InteractionRecord
	catalog      []engine.ContentItem
	profiles     map[string]engine.UserProfile
	history      []engine.EffectivenessRecord
	audit        []engine.AuditEvent

	fetchErr   error // FetchInteractions / FetchCatalog
	profileErr error // FetchUserProfile (non-unknown failures)
}

func (m *mockDataProvider) FetchInteractions(_ context.Context, userID string) ([]engine.InteractionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if userID == "" {
		return append([]engine.InteractionRecord(nil), m.interactions...), nil
	}
	var out []engine.InteractionRecord
	for _, it := range m.interactions {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockDataProvider) FetchCatalog(_ context.Context) ([]engine.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]engine.ContentItem(nil), m.catalog...), nil
}

func (m *mockDataProvider) FetchUserProfile(_ context.Context, userID string) (engine.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileErr != nil {
		return engine.UserProfile{}, m.profileErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return engine.UserProfile{}, engine.ErrUnknownUser
	}
	return p, nil
}

func (m *mockDataProvider) FetchEffectivenessHistory(_ context.Context, _ int) ([]engine.EffectivenessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.EffectivenessRecord(nil), m.history...), nil
}

func (m *mockDataProvider) AppendAuditEvent(_ context.Context, event engine.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, event)
	return nil
}

func (m *mockDataProvider) setFetchErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// mockSink captures published audit events.
type mockSink struct {
	mu     sync.Mutex
	events []engine.AuditEvent
	err    error
}

func (s *mockSink) Publish(_ context.Context, event engine.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *mockSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestOrchestrator(provider *mockDataProvider, sink engine.AuditSink) *Orchestrator {
	o := New(provider, sink, DefaultConfig())
	o.now = func() time.Time { return testNow }
	return o
}

func beginnerCatalog() []engine.ContentItem {
	return []engine.ContentItem{
		{ID: 1, Title: "Budgeting Basics", Difficulty: engine.DifficultyBeginner, Type: engine.ContentLesson, DurationMin: 15, Points: 50},
		{ID: 2, Title: "Intro to Saving", Difficulty: engine.DifficultyBeginner, Type: engine.ContentLesson, DurationMin: 10, Points: 40},
		{ID: 3, Title: "Index Funds", Difficulty: engine.DifficultyIntermediate, Type: engine.ContentArticle, DurationMin: 25, Points: 100},
		{ID: 4, Title: "Debt Payoff Plan", Difficulty: engine.DifficultyBeginner, Type: engine.ContentLesson, DurationMin: 20, Points: 60},
	}
}

func TestUninitializedServesDegraded(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, nil)

	resp, err := o.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Recommend returned error before initialization: %v", err)
	}
	if resp.Outcome != engine.OutcomeDegraded {
		t.Errorf("outcome = %s, want degraded", resp.Outcome)
	}
	if len(resp.Recommendations) != 0 {
		t.Errorf("degraded response carries %d recommendations", len(resp.Recommendations))
	}
	if resp.Predictions != engine.NeutralPredictions() {
		t.Errorf("predictions = %+v, want neutral", resp.Predictions)
	}
	if resp.Confidence != degradedConfidence {
		t.Errorf("confidence = %v, want %v", resp.Confidence, degradedConfidence)
	}
	if resp.Nudge.Message == "" {
		t.Error("degraded response has no nudge message")
	}
}

func TestUnknownUserSurfaced(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{profiles: map[string]engine.UserProfile{}}
	o := newTestOrchestrator(provider, nil)

	_, err := o.Recommend(context.Background(), "ghost")
	if !errors.Is(err, engine.ErrUnknownUser) {
		t.Errorf("err = %v, want ErrUnknownUser", err)
	}
}

func TestFusionArithmetic(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&mockDataProvider{}, nil)
	snap := &Snapshot{Catalog: map[int64]engine.ContentItem{
		1: {ID: 1, Title: "A"}, 2: {ID: 2, Title: "B"}, 3: {ID: 3, Title: "C"},
	}}

	cf := []engine.ScoredItem{{ContentID: 1, Score: 0.8}, {ContentID: 2, Score: 0.4}}
	cb := []engine.ScoredItem{{ContentID: 2, Score: 0.6}, {ContentID: 3, Score: 0.5}}

	// engagement > 0.5 selects cf_weight 0.6: A=0.48, B=0.24+0.24=0.48,
	// C=0.20; the A/B tie breaks by ascending content id.
	got := o.fuse(cf, cb, false, 0.9, snap)
	if len(got) != 3 {
		t.Fatalf("fused %d items, want 3", len(got))
	}

	wantScores := []struct {
		id    int64
		score float64
	}{{1, 0.48}, {2, 0.48}, {3, 0.20}}
	for i, want := range wantScores {
		if got[i].ContentID != want.id {
			t.Errorf("rank %d = content %d, want %d", i, got[i].ContentID, want.id)
		}
		if math.Abs(got[i].Score-want.score) > 1e-9 {
			t.Errorf("content %d score = %v, want %v", got[i].ContentID, got[i].Score, want.score)
		}
	}
	if got[0].Title != "A" {
		t.Errorf("title = %q, want %q", got[0].Title, "A")
	}
}

func TestFusionLowEngagementWeight(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&mockDataProvider{}, nil)
	snap := &Snapshot{Catalog: map[int64]engine.ContentItem{}}

	cf := []engine.ScoredItem{{ContentID: 1, Score: 1.0}}
	cb := []engine.ScoredItem{{ContentID: 2, Score: 1.0}}

	// engagement <= 0.5 selects cf_weight 0.4, so the content-based
	// item outranks the collaborative one.
	got := o.fuse(cf, cb, false, 0.5, snap)
	if got[0].ContentID != 2 {
		t.Errorf("top item = %d, want 2 (content-based weighted 0.6)", got[0].ContentID)
	}
	if math.Abs(got[0].Score-0.6) > 1e-9 || math.Abs(got[1].Score-0.4) > 1e-9 {
		t.Errorf("scores = %v/%v, want 0.6/0.4", got[0].Score, got[1].Score)
	}
}

func TestConfidenceCappedAtOne(t *testing.T) {
	t.Parallel()

	if got := confidence(true, true, 1.0); got != 1.0 {
		t.Errorf("confidence = %v, want capped 1.0", got)
	}
	if got := confidence(false, false, 0); got != 0.3 {
		t.Errorf("confidence floor = %v, want 0.3", got)
	}
}

func TestAtRiskEndToEnd(t *testing.T) {
	t.Parallel()

	// Sparse learner: 3 completions out of 10 items touched, all
	// activity more than a week old. Cold-start engagement lands at
	// (0.6 + 0 + 0.15)/3 = 0.25, below the at-risk threshold.
	old := testNow.AddDate(0, 0, -10)
	var interactions []engine.InteractionRecord
	for i := int64(1); i <= 10; i++ {
		status := engine.StatusInProgress
		if i <= 3 {
			status = engine.StatusCompleted
		}
		interactions = append(interactions, engine.InteractionRecord{
			UserID:    "sparse",
			ContentID: 100 + i,
			Status:    status,
			Timestamp: old.Add(time.Duration(i/4) * 24 * time.Hour),
		})
	}

	provider := &mockDataProvider{
		interactions: interactions,
		catalog:      beginnerCatalog(),
		profiles: map[string]engine.UserProfile{
			"sparse": {UserID: "sparse", CompletedIDs: []int64{101, 102, 103}},
		},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := o.Recommend(context.Background(), "sparse")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if resp.Nudge.Segment != engine.SegmentAtRisk {
		t.Errorf("segment = %s, want at_risk (engagement %v)", resp.Nudge.Segment, resp.Predictions.Engagement)
	}
	if resp.Nudge.Style != engine.StyleMotivational {
		t.Errorf("style = %s, want motivational", resp.Nudge.Style)
	}
	if resp.Confidence > 0.6 {
		t.Errorf("confidence = %v, want <= 0.6 for a sparse profile", resp.Confidence)
	}

	// Fewer than 5 completions restricts content picks to beginner tier.
	snap := o.Active()
	for _, rec := range resp.Recommendations {
		item, ok := snap.Catalog[rec.ContentID]
		if !ok {
			continue // collaborative pick from interaction-only ids
		}
		if item.Difficulty != engine.DifficultyBeginner {
			t.Errorf("recommended %d at tier %s, want beginner only", rec.ContentID, item.Difficulty)
		}
	}
}

func TestDerivedTypePreferenceGatesContent(t *testing.T) {
	t.Parallel()

	// No stated type preferences, but every completion is a video: the
	// observed preference restricts content picks to videos.
	catalog := []engine.ContentItem{
		{ID: 1, Title: "Saving Explained", Difficulty: engine.DifficultyBeginner, Type: engine.ContentVideo, DurationMin: 10, Points: 40},
		{ID: 2, Title: "Compound Interest", Difficulty: engine.DifficultyBeginner, Type: engine.ContentVideo, DurationMin: 12, Points: 40},
		{ID: 3, Title: "Budgeting Walkthrough", Difficulty: engine.DifficultyBeginner, Type: engine.ContentVideo, DurationMin: 15, Points: 50},
		{ID: 4, Title: "Budgeting Basics", Difficulty: engine.DifficultyBeginner, Type: engine.ContentLesson, DurationMin: 15, Points: 50},
		{ID: 5, Title: "Why Budgets Fail", Difficulty: engine.DifficultyBeginner, Type: engine.ContentArticle, DurationMin: 8, Points: 30},
	}
	provider := &mockDataProvider{
		catalog: catalog,
		interactions: []engine.InteractionRecord{
			{UserID: "watcher", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow.AddDate(0, 0, -3)},
			{UserID: "watcher", ContentID: 2, Status: engine.StatusCompleted, Timestamp: testNow.AddDate(0, 0, -1)},
		},
		profiles: map[string]engine.UserProfile{
			"watcher": {UserID: "watcher", CompletedIDs: []int64{1, 2}},
		},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := o.Recommend(context.Background(), "watcher")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Recommendations) == 0 {
		t.Fatal("no recommendations")
	}

	snap := o.Active()
	for _, rec := range resp.Recommendations {
		item, ok := snap.Catalog[rec.ContentID]
		if !ok {
			continue
		}
		if item.Type != engine.ContentVideo {
			t.Errorf("recommended %d of type %s despite video-only completion history", rec.ContentID, item.Type)
		}
	}
	var sawFresh bool
	for _, rec := range resp.Recommendations {
		if rec.ContentID == 3 {
			sawFresh = true
		}
	}
	if !sawFresh {
		t.Error("fresh video item 3 missing from recommendations")
	}
}

func TestInProgressContinuationRanksFirst(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		catalog: beginnerCatalog(),
		profiles: map[string]engine.UserProfile{
			"resumer": {UserID: "resumer", InProgressIDs: []int64{3}},
		},
		interactions: []engine.InteractionRecord{
			{UserID: "resumer", ContentID: 3, Status: engine.StatusInProgress, Timestamp: testNow.AddDate(0, 0, -1)},
		},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := o.Recommend(context.Background(), "resumer")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Recommendations) == 0 {
		t.Fatal("no recommendations")
	}

	first := resp.Recommendations[0]
	if first.ContentID != 3 {
		t.Errorf("top recommendation = %d, want in-progress item 3", first.ContentID)
	}
	if first.Source != engine.RecommendationContinuation {
		t.Errorf("top source = %s, want continuation", first.Source)
	}
	if first.Title != "Index Funds" {
		t.Errorf("top title = %q, want %q", first.Title, "Index Funds")
	}
	for _, rec := range resp.Recommendations[1:] {
		if rec.ContentID == 3 {
			t.Error("in-progress item also surfaced by a recommender")
		}
		if rec.Source != engine.RecommendationFused {
			t.Errorf("content %d source = %s, want fused", rec.ContentID, rec.Source)
		}
	}
}

func TestEmptyStoreEndToEnd(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize over empty store: %v", err)
	}

	resp, err := o.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Recommendations) != 0 {
		t.Errorf("got %d recommendations from an empty store", len(resp.Recommendations))
	}
	p := resp.Predictions
	if p.Engagement != 0.5 || p.CompletionProbability != 0.5 || p.ChurnRisk != 0.5 {
		t.Errorf("predictions = %+v, want 0.5 across the board", p)
	}
	if resp.Confidence < 0.3 || resp.Confidence > 0.5 {
		t.Errorf("confidence = %v, want within [0.3, 0.5]", resp.Confidence)
	}
	if resp.Nudge.Message == "" {
		t.Error("no generic nudge message")
	}
}

func TestShouldRetrain(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow.AddDate(0, 0, -1)},
		},
		catalog:  beginnerCatalog(),
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, nil)

	if !o.ShouldRetrain(context.Background()) {
		t.Error("never-trained orchestrator should want a retrain")
	}

	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if o.ShouldRetrain(context.Background()) {
		t.Error("fresh snapshot with no new interactions should not retrain")
	}

	// Age out the snapshot.
	o.now = func() time.Time { return testNow.Add(8 * 24 * time.Hour) }
	if !o.ShouldRetrain(context.Background()) {
		t.Error("snapshot older than 7 days should retrain")
	}
	o.now = func() time.Time { return testNow }

	// Pile on new interactions past the threshold.
	provider.mu.Lock()
	for i := 0; i < 150; i++ {
		provider.interactions = append(provider.interactions, engine.InteractionRecord{
			UserID: "u1", ContentID: int64(1000 + i), Status: engine.StatusCompleted, Timestamp: testNow,
		})
	}
	provider.mu.Unlock()
	if !o.ShouldRetrain(context.Background()) {
		t.Error("150 new interactions should cross the retrain threshold")
	}
}

func TestRetrainFailureKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow},
		},
		catalog:  beginnerCatalog(),
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	active := o.Active()

	provider.setFetchErr(engine.ErrDataUnavailable)
	err := o.Retrain(context.Background(), true)
	if !errors.Is(err, engine.ErrRebuildFailed) {
		t.Errorf("err = %v, want ErrRebuildFailed", err)
	}
	if o.Active() != active {
		t.Error("failed rebuild replaced the active snapshot")
	}
	if got := o.Status(); got.State != "active" {
		t.Errorf("state after failed rebuild = %s, want active", got.State)
	}
}

func TestConcurrentRebuildCollapses(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(&mockDataProvider{}, nil)

	o.rebuildMu.Lock()
	defer o.rebuildMu.Unlock()

	if err := o.Retrain(context.Background(), true); !errors.Is(err, engine.ErrRebuildInFlight) {
		t.Errorf("err = %v, want ErrRebuildInFlight", err)
	}
	if err := o.Initialize(context.Background()); !errors.Is(err, engine.ErrRebuildInFlight) {
		t.Errorf("Initialize err = %v, want ErrRebuildInFlight", err)
	}
}

func TestConcurrentReadsDuringRetrain(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow},
			{UserID: "u2", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow},
			{UserID: "u2", ContentID: 2, Status: engine.StatusCompleted, Timestamp: testNow},
		},
		catalog: beginnerCatalog(),
		profiles: map[string]engine.UserProfile{
			"u1": {UserID: "u1"}, "u2": {UserID: "u2"},
		},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := o.Recommend(context.Background(), "u1"); err != nil {
					t.Errorf("Recommend during retrain: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		if err := o.Retrain(context.Background(), true); err != nil && !errors.Is(err, engine.ErrRebuildInFlight) {
			t.Errorf("Retrain: %v", err)
		}
	}
	wg.Wait()
}

func TestAuditEventPublished(t *testing.T) {
	t.Parallel()

	sink := &mockSink{}
	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow},
		},
		catalog:  beginnerCatalog(),
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, sink)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := o.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("published %d audit events, want 1", sink.count())
	}
	sink.mu.Lock()
	event := sink.events[0]
	sink.mu.Unlock()
	if event.UserID != "u1" || event.Style != resp.Nudge.Style {
		t.Errorf("audit event = %+v, want user u1 with style %s", event, resp.Nudge.Style)
	}
}

func TestAuditFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	sink := &mockSink{err: errors.New("broker down")}
	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow},
		},
		catalog:  beginnerCatalog(),
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, sink)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := o.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Recommend failed on audit error: %v", err)
	}
	if resp.Outcome != engine.OutcomeOK {
		t.Errorf("outcome = %s, want ok despite audit failure", resp.Outcome)
	}
}

func TestRestoreWarmStart(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow},
		},
		catalog:  beginnerCatalog(),
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}

	builder := newTestOrchestrator(provider, nil)
	if err := builder.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	snap := builder.Active()

	restored := newTestOrchestrator(provider, nil)
	restored.Restore(snap)

	status := restored.Status()
	if status.State != "active" {
		t.Errorf("state after restore = %s, want active", status.State)
	}
	if status.SnapshotID != snap.ID {
		t.Errorf("snapshot id = %s, want %s", status.SnapshotID, snap.ID)
	}

	if _, err := restored.Recommend(context.Background(), "u1"); err != nil {
		t.Errorf("Recommend off restored snapshot: %v", err)
	}
}

func TestPredictionsRangeInvariant(t *testing.T) {
	t.Parallel()

	provider := &mockDataProvider{
		interactions: []engine.InteractionRecord{
			{UserID: "u1", ContentID: 1, Status: engine.StatusCompleted, Timestamp: testNow.AddDate(0, 0, -2)},
			{UserID: "u1", ContentID: 2, Status: engine.StatusInProgress, Timestamp: testNow.AddDate(0, 0, -1)},
		},
		catalog:  beginnerCatalog(),
		profiles: map[string]engine.UserProfile{"u1": {UserID: "u1"}},
	}
	o := newTestOrchestrator(provider, nil)
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	p, err := o.Predictions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	for name, v := range map[string]float64{
		"engagement": p.Engagement,
		"completion": p.CompletionProbability,
		"churn":      p.ChurnRisk,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, out of [0,1]", name, v)
		}
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.Fusion.TopK = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero top_k passed validation")
	}

	bad = DefaultConfig()
	bad.Fusion.HighCFWeight = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("out-of-range cf weight passed validation")
	}
}
