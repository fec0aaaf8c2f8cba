// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package engine

import "time"

// Difficulty is an ordered content difficulty tier.
type Difficulty int

const (
	DifficultyBeginner Difficulty = iota
	DifficultyIntermediate
	DifficultyAdvanced
)

// String returns the lowercase tier name.
func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	default:
		return "unknown"
	}
}

// ParseDifficulty maps a tier name to its Difficulty. Unknown names
// map to beginner so malformed catalog rows stay servable.
func ParseDifficulty(s string) Difficulty {
	switch s {
	case "intermediate":
		return DifficultyIntermediate
	case "advanced":
		return DifficultyAdvanced
	default:
		return DifficultyBeginner
	}
}

// ContentType enumerates the kinds of catalog content.
type ContentType string

const (
	ContentLesson    ContentType = "lesson"
	ContentVideo     ContentType = "video"
	ContentArticle   ContentType = "article"
	ContentChallenge ContentType = "challenge"
)

// InteractionStatus is the lifecycle state of a user-content interaction.
type InteractionStatus string

const (
	StatusNotStarted InteractionStatus = "not_started"
	StatusInProgress InteractionStatus = "in_progress"
	StatusCompleted  InteractionStatus = "completed"
)

// Score maps an interaction status to its matrix cell value.
func (s InteractionStatus) Score() float64 {
	switch s {
	case StatusCompleted:
		return 1.0
	case StatusInProgress:
		return 0.5
	default:
		return 0.0
	}
}

// UserProfile is a per-request snapshot of a learner's stated preferences
// and progress. It is immutable once fetched; the data provider refreshes it.
type UserProfile struct {
	UserID         string        `json:"user_id"`
	RiskProfile    string        `json:"risk_profile"`
	Goals          []string      `json:"goals"`
	Topics         []string      `json:"topics"`
	LearningStyle  string        `json:"learning_style"`
	TimeHorizon    string        `json:"time_horizon"`
	PreferredTypes []ContentType `json:"preferred_types"`
	CompletedIDs   []int64       `json:"completed_ids"`
	InProgressIDs  []int64       `json:"in_progress_ids"`
}

// ContentItem is one catalog entry. Read-only to the engines.
type ContentItem struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Tags        []string    `json:"tags"`
	Difficulty  Difficulty  `json:"difficulty"`
	Type        ContentType `json:"type"`
	DurationMin int         `json:"duration_min"`
	Points      int         `json:"points"`
}

// InteractionRecord is one append-only user-content interaction event.
type InteractionRecord struct {
	UserID       string            `json:"user_id"`
	ContentID    int64             `json:"content_id"`
	Status       InteractionStatus `json:"status"`
	TimeSpentMin float64           `json:"time_spent_min"`
	Timestamp    time.Time         `json:"timestamp"`
}

// BehavioralFeatures is the per-user scalar bag derived from interaction
// history. Derived on demand, never persisted.
type BehavioralFeatures struct {
	TotalContent     int     `json:"total_content"`
	CompletedContent int     `json:"completed_content"`
	AvgTimeSpentMin  float64 `json:"avg_time_spent_min"`
	ActiveDays       int     `json:"active_days"`
	TotalEvents      int     `json:"total_events"`
	CompletionRate   float64 `json:"completion_rate"`
	SessionCount     int     `json:"session_count"`

	// PreferredTypes are the top content types by recent completions,
	// falling back to the profile's stated preferences.
	PreferredTypes []ContentType `json:"preferred_types,omitempty"`

	// LearningVelocity is completions in the trailing 7 days.
	LearningVelocity float64 `json:"learning_velocity"`

	// DaysSinceLast is the number of days since the most recent event.
	DaysSinceLast float64 `json:"days_since_last"`

	TimeHorizon   string `json:"time_horizon"`
	LearningStyle string `json:"learning_style"`
}

// PredictionSource tags how a prediction set was produced, so callers
// can distinguish a learned score from a fallback.
type PredictionSource string

const (
	PredictionSourceModel     PredictionSource = "model"
	PredictionSourceColdStart PredictionSource = "cold_start"
	PredictionSourceDegraded  PredictionSource = "degraded"
)

// Predictions holds the three behavioral risk scores, each in [0,1].
type Predictions struct {
	Engagement            float64          `json:"engagement"`
	CompletionProbability float64          `json:"completion_probability"`
	ChurnRisk             float64          `json:"churn_risk"`
	Source                PredictionSource `json:"source"`
}

// NeutralPredictions returns the degraded-mode prediction set.
func NeutralPredictions() Predictions {
	return Predictions{
		Engagement:            0.5,
		CompletionProbability: 0.5,
		ChurnRisk:             0.5,
		Source:                PredictionSourceDegraded,
	}
}

// Segment is a coarse behavioral bucket driving nudge style selection.
type Segment string

const (
	SegmentHighPerformer Segment = "high_performer"
	SegmentAtRisk        Segment = "at_risk"
	SegmentFastLearner   Segment = "fast_learner"
	SegmentSteadyLearner Segment = "steady_learner"
)

// NudgeStyle classifies the intended psychological effect of a nudge.
type NudgeStyle string

const (
	StyleSocial       NudgeStyle = "social"
	StyleMotivational NudgeStyle = "motivational"
	StyleEducational  NudgeStyle = "educational"
	StyleUrgency      NudgeStyle = "urgency"
)

// NudgeResult is the rendered message for one request. Ephemeral.
type NudgeResult struct {
	Style      NudgeStyle `json:"style"`
	Message    string     `json:"message"`
	Confidence float64    `json:"confidence"`
	Segment    Segment    `json:"segment"`
}

// EffectivenessRecord is one observed nudge outcome used to tune style
// selection. Outcome is 1 for a positive response, 0 otherwise.
type EffectivenessRecord struct {
	UserID     string     `json:"user_id"`
	Style      NudgeStyle `json:"style"`
	Outcome    float64    `json:"outcome"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// ScoredItem is one (content, score) pair produced by a recommender.
type ScoredItem struct {
	ContentID int64   `json:"content_id"`
	Score     float64 `json:"score"`
}

// RecommendationSource tags how a recommendation entered the response:
// resumed in-progress content, the weighted fusion, or the relaxed
// beginner fallback.
type RecommendationSource string

const (
	RecommendationContinuation RecommendationSource = "continuation"
	RecommendationFused        RecommendationSource = "fused"
	RecommendationFallback     RecommendationSource = "fallback"
)

// Recommendation is one fused catalog recommendation in a response.
type Recommendation struct {
	ContentID int64                `json:"content_id"`
	Title     string               `json:"title"`
	Score     float64              `json:"score"`
	Source    RecommendationSource `json:"source"`

	// Scores breaks the fused score down by contributing engine.
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Outcome classifies how a response was produced.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
)

// Response is the complete answer to one recommendation request. The
// orchestrator always returns a well-formed Response, degrading fields
// individually rather than failing the request.
type Response struct {
	UserID          string           `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Predictions     Predictions      `json:"predictions"`
	Nudge           NudgeResult      `json:"nudge"`
	Confidence      float64          `json:"confidence"`
	Outcome         Outcome          `json:"outcome"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// AuditEvent records a served nudge for offline effectiveness analysis.
type AuditEvent struct {
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	Style     NudgeStyle        `json:"style"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ModelStatus reports the lifecycle state of the active model.
type ModelStatus struct {
	State            string    `json:"state"`
	SnapshotID       string    `json:"snapshot_id,omitempty"`
	BuiltAt          time.Time `json:"built_at,omitempty"`
	InteractionCount int       `json:"interaction_count"`
	IsRetraining     bool      `json:"is_retraining"`
}
