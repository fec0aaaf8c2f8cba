// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package hybrid fuses the collaborative, content-based, behavioral,
// and nudge engines behind a versioned model snapshot with an atomic
// swap lifecycle. Readers never block on a rebuild and never observe a
// half-built model.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/engine/behavior"
	"github.com/learnpulse/learnpulse/internal/engine/nudge"
	"github.com/learnpulse/learnpulse/internal/logging"
	"github.com/learnpulse/learnpulse/internal/metrics"
)

// State is the orchestrator lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateActive
	StateRetraining
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateRetraining:
		return "retraining"
	default:
		return "unknown"
	}
}

// Score source labels in Recommendation.Scores.
const (
	sourceCollaborative = "collaborative"
	sourceContent       = "content"
)

// degradedConfidence is the confidence floor reported when no model is
// available.
const degradedConfidence = 0.3

// Orchestrator owns the engine lifecycle: it builds model snapshots,
// swaps them atomically, and serves fused recommendations off whichever
// snapshot is active. All methods are safe for concurrent use.
type Orchestrator struct {
	cfg      Config
	provider engine.DataProvider
	sink     engine.AuditSink
	nudger   *nudge.Engine
	log      zerolog.Logger

	snap  atomic.Pointer[Snapshot]
	state atomic.Int32

	// rebuildMu serializes rebuilds; TryLock collapses concurrent
	// requests into a no-op.
	rebuildMu sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// New creates an orchestrator in the uninitialized state. The sink may
// be nil, in which case audit events go straight to the provider.
func New(provider engine.DataProvider, sink engine.AuditSink, cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		sink:     sink,
		nudger:   nudge.New(cfg.Nudge),
		log:      logging.With().Str("component", "hybrid").Logger(),
		now:      time.Now,
	}
}

// Initialize performs the first model build. Requests arriving before
// it completes receive degraded responses rather than blocking.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if !o.rebuildMu.TryLock() {
		return engine.ErrRebuildInFlight
	}
	defer o.rebuildMu.Unlock()

	o.state.Store(int32(StateInitializing))
	snap, err := o.rebuild(ctx)
	if err != nil {
		o.state.Store(int32(StateUninitialized))
		return fmt.Errorf("%w: %w", engine.ErrRebuildFailed, err)
	}

	o.swap(snap)
	return nil
}

// Retrain builds a new snapshot and swaps it in. When force is false
// the staleness policy decides whether a rebuild happens at all. A
// rebuild already in flight returns ErrRebuildInFlight; a failed
// rebuild leaves the previous snapshot serving.
func (o *Orchestrator) Retrain(ctx context.Context, force bool) error {
	if !force && !o.ShouldRetrain(ctx) {
		metrics.RetrainsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	if !o.rebuildMu.TryLock() {
		return engine.ErrRebuildInFlight
	}
	defer o.rebuildMu.Unlock()

	prev := State(o.state.Load())
	if prev == StateActive {
		o.state.Store(int32(StateRetraining))
	} else {
		o.state.Store(int32(StateInitializing))
	}

	start := o.now()
	snap, err := o.rebuild(ctx)
	if err != nil {
		// Previous snapshot stays active; the trigger fires again on
		// the next evaluation.
		o.state.Store(int32(prev))
		metrics.ObserveRetrain("failed", start)
		o.log.Error().Err(err).Msg("model rebuild failed, keeping previous snapshot")
		return fmt.Errorf("%w: %w", engine.ErrRebuildFailed, err)
	}

	o.swap(snap)
	metrics.ObserveRetrain("ok", start)
	o.log.Info().
		Str("snapshot_id", snap.ID).
		Int("interactions", snap.InteractionCount).
		Int("catalog_items", len(snap.Catalog)).
		Msg("model snapshot activated")
	return nil
}

// ShouldRetrain evaluates the staleness policy: never trained, active
// snapshot older than MaxModelAge, or more than NewInteractionThreshold
// interactions recorded since the active build.
func (o *Orchestrator) ShouldRetrain(ctx context.Context) bool {
	snap := o.snap.Load()
	if snap == nil {
		return true
	}
	if snap.Age(o.now()) > o.cfg.Retrain.MaxModelAge {
		return true
	}

	interactions, err := o.provider.FetchInteractions(ctx, "")
	if err != nil {
		o.log.Warn().Err(err).Msg("staleness check could not count interactions")
		return false
	}
	return len(interactions)-snap.InteractionCount > o.cfg.Retrain.NewInteractionThreshold
}

// Recommend serves one recommendation request off the active snapshot.
// ErrUnknownUser is the only error surfaced to callers; every other
// failure degrades the affected fields and the response is still
// well-formed.
func (o *Orchestrator) Recommend(ctx context.Context, userID string) (engine.Response, error) {
	start := o.now()

	profile, err := o.provider.FetchUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownUser) {
			metrics.ObserveRecommend("unknown_user", start)
			return engine.Response{}, err
		}
		// Profile store unreachable: degrade rather than fail.
		o.log.Warn().Err(err).Str("user_id", userID).Msg("profile fetch failed, serving degraded response")
		metrics.ObserveRecommend("degraded", start)
		return o.degraded(userID), nil
	}

	snap := o.snap.Load()
	if snap == nil {
		metrics.ObserveRecommend("not_ready", start)
		return o.degraded(userID), nil
	}
	if snap.InteractionCount == 0 && len(snap.Catalog) == 0 {
		// A snapshot built from an empty store cannot say anything
		// useful about anyone.
		metrics.ObserveRecommend("degraded", start)
		return o.degraded(userID), nil
	}

	interactions, err := o.provider.FetchInteractions(ctx, userID)
	if err != nil && !errors.Is(err, engine.ErrUnknownUser) {
		// Features degrade to the cold-start estimate for this user.
		o.log.Warn().Err(err).Str("user_id", userID).Msg("interaction fetch failed, using cold-start features")
		interactions = nil
	}

	features := behavior.DeriveFeatures(interactions, profile, o.now())
	if derived := behavior.DerivePreferredTypes(interactions, snap.Catalog); len(derived) > 0 {
		features.PreferredTypes = derived
	}
	predictions := snap.Predictor.Predict(features)

	cf := snap.Collab.Recommend(userID, o.cfg.Fusion.TopK)

	excluded := make(map[int64]struct{}, len(profile.CompletedIDs)+len(profile.InProgressIDs))
	for _, id := range profile.CompletedIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range profile.InProgressIDs {
		excluded[id] = struct{}{}
	}
	// The content gate follows observed behavior over stated preferences:
	// features.PreferredTypes carries the completion-derived types when
	// the user has any, else the profile's own.
	contentProfile := profile
	contentProfile.PreferredTypes = features.PreferredTypes
	cb, cbFallback := snap.Content.Recommend(contentProfile, excluded, o.cfg.Fusion.TopK)

	fused := o.fuse(cf, cb, cbFallback, predictions.Engagement, snap)
	recs := append(o.continuations(profile, snap), fused...)
	if len(recs) > o.cfg.Fusion.TopK {
		recs = recs[:o.cfg.Fusion.TopK]
	}

	history, err := o.provider.FetchEffectivenessHistory(ctx, o.cfg.Nudge.EffectivenessWindowDays)
	if err != nil {
		o.log.Debug().Err(err).Msg("effectiveness history unavailable, using static style table")
		history = nil
	}
	nudgeResult := o.nudger.Optimize(profile, features, predictions, history, o.now())

	resp := engine.Response{
		UserID:          userID,
		Recommendations: recs,
		Predictions:     predictions,
		Nudge:           nudgeResult,
		Confidence:      confidence(len(cf) > 0, len(cb) > 0, predictions.Engagement),
		Outcome:         engine.OutcomeOK,
		GeneratedAt:     o.now(),
	}

	o.emitAudit(resp)
	metrics.ObserveRecommend("ok", start)
	return resp, nil
}

// Predictions returns only the behavioral scores for one user.
func (o *Orchestrator) Predictions(ctx context.Context, userID string) (engine.Predictions, error) {
	profile, err := o.provider.FetchUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownUser) {
			return engine.Predictions{}, err
		}
		return engine.NeutralPredictions(), nil
	}

	interactions, err := o.provider.FetchInteractions(ctx, userID)
	if err != nil && !errors.Is(err, engine.ErrUnknownUser) {
		interactions = nil
	}
	features := behavior.DeriveFeatures(interactions, profile, o.now())

	if snap := o.snap.Load(); snap != nil {
		return snap.Predictor.Predict(features), nil
	}
	return behavior.ColdStart(features), nil
}

// Status reports the lifecycle state and active snapshot metadata.
func (o *Orchestrator) Status() engine.ModelStatus {
	st := State(o.state.Load())
	status := engine.ModelStatus{
		State:        st.String(),
		IsRetraining: st == StateRetraining || st == StateInitializing,
	}
	if snap := o.snap.Load(); snap != nil {
		status.SnapshotID = snap.ID
		status.BuiltAt = snap.BuiltAt
		status.InteractionCount = snap.InteractionCount
	}
	return status
}

// Restore activates a previously persisted snapshot (warm start). The
// staleness policy still applies, so an old restored snapshot triggers
// a retrain on the next evaluation.
func (o *Orchestrator) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	o.swap(snap)
	o.log.Info().
		Str("snapshot_id", snap.ID).
		Time("built_at", snap.BuiltAt).
		Msg("model snapshot restored")
}

// Active returns the currently serving snapshot, or nil.
func (o *Orchestrator) Active() *Snapshot {
	return o.snap.Load()
}

// swap atomically activates a snapshot and updates freshness gauges.
func (o *Orchestrator) swap(snap *Snapshot) {
	o.snap.Store(snap)
	o.state.Store(int32(StateActive))
	metrics.SnapshotAge.Set(snap.Age(o.now()).Seconds())
	metrics.SnapshotInteractions.Set(float64(snap.InteractionCount))
}

// rebuild pulls a fresh data snapshot and builds a model version.
func (o *Orchestrator) rebuild(ctx context.Context) (*Snapshot, error) {
	interactions, err := o.provider.FetchInteractions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch interactions: %w", err)
	}
	catalog, err := o.provider.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	return newSnapshot(interactions, catalog, o.cohort(ctx, interactions), o.cfg, o.now()), nil
}

// cohort derives per-user training features from the full interaction
// pull. A user whose profile or features cannot be prepared is dropped
// from the cohort, never aborting the build.
func (o *Orchestrator) cohort(ctx context.Context, interactions []engine.InteractionRecord) []engine.BehavioralFeatures {
	byUser := make(map[string][]engine.InteractionRecord)
	for _, it := range interactions {
		byUser[it.UserID] = append(byUser[it.UserID], it)
	}

	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	now := o.now()
	cohort := make([]engine.BehavioralFeatures, 0, len(users))
	for _, u := range users {
		profile, err := o.provider.FetchUserProfile(ctx, u)
		if err != nil {
			// Interactions without a profile still carry signal; the
			// categorical fields land in the unknown bucket.
			profile = engine.UserProfile{UserID: u}
		}
		cohort = append(cohort, behavior.DeriveFeatures(byUser[u], profile, now))
	}
	return cohort
}

// continuations lists the user's in-progress content ahead of fresh
// picks, so learners resume what they started. Ascending id for a
// stable order.
func (o *Orchestrator) continuations(profile engine.UserProfile, snap *Snapshot) []engine.Recommendation {
	if len(profile.InProgressIDs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(profile.InProgressIDs))
	for _, id := range profile.InProgressIDs {
		if _, known := snap.Catalog[id]; known {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	out := make([]engine.Recommendation, 0, len(ids))
	for _, id := range ids {
		out = append(out, engine.Recommendation{
			ContentID: id,
			Title:     snap.Catalog[id].Title,
			Score:     1,
			Source:    engine.RecommendationContinuation,
		})
	}
	return out
}

// fuse combines the two recommender lists with engagement-conditioned
// weights. Items in both lists sum their weighted scores; ties rank by
// ascending content id.
func (o *Orchestrator) fuse(cf, cb []engine.ScoredItem, cbFallback bool, engagement float64, snap *Snapshot) []engine.Recommendation {
	cfWeight := o.cfg.Fusion.LowCFWeight
	if engagement > o.cfg.Fusion.EngagementThreshold {
		cfWeight = o.cfg.Fusion.HighCFWeight
	}
	cbWeight := 1 - cfWeight

	merged := make(map[int64]*engine.Recommendation)
	add := func(items []engine.ScoredItem, weight float64, source string) {
		for _, item := range items {
			rec, ok := merged[item.ContentID]
			if !ok {
				rec = &engine.Recommendation{
					ContentID: item.ContentID,
					Source:    engine.RecommendationFused,
					Scores:    make(map[string]float64, 2),
				}
				if entry, known := snap.Catalog[item.ContentID]; known {
					rec.Title = entry.Title
				}
				merged[item.ContentID] = rec
			}
			contribution := item.Score * weight
			rec.Score += contribution
			rec.Scores[source] = contribution
		}
	}
	add(cf, cfWeight, sourceCollaborative)
	add(cb, cbWeight, sourceContent)

	out := make([]engine.Recommendation, 0, len(merged))
	for _, rec := range merged {
		if cbFallback {
			if _, fromCF := rec.Scores[sourceCollaborative]; !fromCF {
				rec.Source = engine.RecommendationFallback
			}
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].ContentID < out[b].ContentID
	})
	if len(out) > o.cfg.Fusion.TopK {
		out = out[:o.cfg.Fusion.TopK]
	}
	return out
}

// confidence is the response-level confidence score, capped at 1.
func confidence(cfNonEmpty, cbNonEmpty bool, engagement float64) float64 {
	c := 0.3 + 0.3*engagement
	if cfNonEmpty {
		c += 0.2
	}
	if cbNonEmpty {
		c += 0.2
	}
	if c > 1 {
		c = 1
	}
	return c
}

// degraded is the well-formed response served when no model is
// available or the profile store is unreachable.
func (o *Orchestrator) degraded(userID string) engine.Response {
	metrics.DegradedResponses.Inc()
	return engine.Response{
		UserID:          userID,
		Recommendations: []engine.Recommendation{},
		Predictions:     engine.NeutralPredictions(),
		Nudge: engine.NudgeResult{
			Style:      engine.StyleMotivational,
			Message:    "Keep going - a little progress every day adds up.",
			Confidence: 0.5,
			Segment:    engine.SegmentSteadyLearner,
		},
		Confidence:  degradedConfidence,
		Outcome:     engine.OutcomeDegraded,
		GeneratedAt: o.now(),
	}
}

// emitAudit records the served nudge. Fire-and-forget: delivery
// failures are logged and counted, never surfaced to the request.
func (o *Orchestrator) emitAudit(resp engine.Response) {
	event := engine.AuditEvent{
		EventID: uuid.NewString(),
		UserID:  resp.UserID,
		Style:   resp.Nudge.Style,
		Message: resp.Nudge.Message,
		Metadata: map[string]string{
			"segment": string(resp.Nudge.Segment),
			"outcome": string(resp.Outcome),
		},
		CreatedAt: resp.GeneratedAt,
	}

	if o.sink != nil {
		if err := o.sink.Publish(context.Background(), event); err != nil {
			metrics.AuditEvents.WithLabelValues("failed").Inc()
			o.log.Warn().Err(err).Str("user_id", event.UserID).Msg("audit publish failed")
			return
		}
		metrics.AuditEvents.WithLabelValues("published").Inc()
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.provider.AppendAuditEvent(ctx, event); err != nil {
			metrics.AuditEvents.WithLabelValues("failed").Inc()
			o.log.Warn().Err(err).Str("user_id", event.UserID).Msg("audit append failed")
			return
		}
		metrics.AuditEvents.WithLabelValues("stored").Inc()
	}()
}
