// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package hybrid

import (
	"fmt"
	"time"

	"github.com/learnpulse/learnpulse/internal/engine/behavior"
	"github.com/learnpulse/learnpulse/internal/engine/collab"
	"github.com/learnpulse/learnpulse/internal/engine/content"
	"github.com/learnpulse/learnpulse/internal/engine/nudge"
)

// Config aggregates the per-engine settings plus the fusion and
// retraining policies the orchestrator owns.
type Config struct {
	Collab   collab.Config   `koanf:"collab"`
	Content  content.Config  `koanf:"content"`
	Behavior behavior.Config `koanf:"behavior"`
	Nudge    nudge.Config    `koanf:"nudge"`
	Fusion   FusionConfig    `koanf:"fusion"`
	Retrain  RetrainConfig   `koanf:"retrain"`
}

// FusionConfig controls how the two recommender outputs are combined.
type FusionConfig struct {
	// EngagementThreshold decides which collaborative weight applies.
	// Default: 0.5.
	EngagementThreshold float64 `koanf:"engagement_threshold"`

	// HighCFWeight applies when engagement exceeds the threshold;
	// LowCFWeight otherwise. Content-based scores always get the
	// complement. Defaults: 0.6 and 0.4.
	HighCFWeight float64 `koanf:"high_cf_weight"`
	LowCFWeight  float64 `koanf:"low_cf_weight"`

	// TopK is the fused list length. Default: 5.
	TopK int `koanf:"top_k"`
}

// RetrainConfig controls the staleness policy.
type RetrainConfig struct {
	// MaxModelAge forces a retrain once the active snapshot is older.
	// Default: 168h (7 days).
	MaxModelAge time.Duration `koanf:"max_model_age"`

	// NewInteractionThreshold forces a retrain once this many
	// interactions arrive after the active build. Default: 100.
	NewInteractionThreshold int `koanf:"new_interaction_threshold"`
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Collab:   collab.DefaultConfig(),
		Content:  content.DefaultConfig(),
		Behavior: behavior.DefaultConfig(),
		Nudge:    nudge.DefaultConfig(),
		Fusion: FusionConfig{
			EngagementThreshold: 0.5,
			HighCFWeight:        0.6,
			LowCFWeight:         0.4,
			TopK:                5,
		},
		Retrain: RetrainConfig{
			MaxModelAge:             7 * 24 * time.Hour,
			NewInteractionThreshold: 100,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Fusion.HighCFWeight < 0 || c.Fusion.HighCFWeight > 1 {
		return fmt.Errorf("fusion.high_cf_weight %v outside [0,1]", c.Fusion.HighCFWeight)
	}
	if c.Fusion.LowCFWeight < 0 || c.Fusion.LowCFWeight > 1 {
		return fmt.Errorf("fusion.low_cf_weight %v outside [0,1]", c.Fusion.LowCFWeight)
	}
	if c.Fusion.EngagementThreshold < 0 || c.Fusion.EngagementThreshold > 1 {
		return fmt.Errorf("fusion.engagement_threshold %v outside [0,1]", c.Fusion.EngagementThreshold)
	}
	if c.Fusion.TopK <= 0 {
		return fmt.Errorf("fusion.top_k must be positive, got %d", c.Fusion.TopK)
	}
	if c.Retrain.MaxModelAge <= 0 {
		return fmt.Errorf("retrain.max_model_age must be positive, got %v", c.Retrain.MaxModelAge)
	}
	if c.Retrain.NewInteractionThreshold <= 0 {
		return fmt.Errorf("retrain.new_interaction_threshold must be positive, got %d", c.Retrain.NewInteractionThreshold)
	}
	if c.Collab.Neighbors <= 0 {
		return fmt.Errorf("collab.neighbors must be positive, got %d", c.Collab.Neighbors)
	}
	if c.Content.VocabularySize <= 0 {
		return fmt.Errorf("content.vocabulary_size must be positive, got %d", c.Content.VocabularySize)
	}
	return nil
}
