// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package nudge selects and renders the per-request motivational
// message. Segment assignment and template choice are pure functions of
// the inputs, so the same user always sees the same message for a
// given behavioral state.
package nudge

import (
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/learnpulse/learnpulse/internal/engine"
)

// Config holds nudge selection parameters.
type Config struct {
	// EffectivenessWindowDays bounds the outcome history consulted for
	// style selection. Default: 30.
	EffectivenessWindowDays int `koanf:"effectiveness_window_days"`

	// ConfidenceSamples is the sample count at which an observed style
	// mean earns full confidence. Default: 50.
	ConfidenceSamples int `koanf:"confidence_samples"`
}

// DefaultConfig returns the default nudge configuration.
func DefaultConfig() Config {
	return Config{EffectivenessWindowDays: 30, ConfidenceSamples: 50}
}

// Segment thresholds (first match wins).
const (
	highEngagement = 0.7
	highCompletion = 0.8
	lowEngagement  = 0.3
	lowCompletion  = 0.3
	fastVelocity   = 2.0
)

// staticStyles is the default segment-to-style table, used when no
// effectiveness history is available.
var staticStyles = map[engine.Segment]engine.NudgeStyle{
	engine.SegmentHighPerformer: engine.StyleSocial,
	engine.SegmentAtRisk:        engine.StyleMotivational,
	engine.SegmentFastLearner:   engine.StyleEducational,
	engine.SegmentSteadyLearner: engine.StyleUrgency,
}

// templates per style. Placeholders use {name} syntax; unresolvable
// placeholders leave the template text untouched.
var templates = map[engine.NudgeStyle][]string{
	engine.StyleSocial: {
		"Learners like you finished {completed} lessons this month - you're in good company!",
		"You're ahead of most learners at your level. Keep the streak alive!",
		"{completed} lessons done - share your progress and inspire someone today.",
	},
	engine.StyleMotivational: {
		"Every step counts. One short lesson today keeps your momentum going!",
		"You've already completed {completed} lessons - the next one is waiting for you.",
		"Small wins add up. Pick up where you left off and watch your progress grow.",
	},
	engine.StyleEducational: {
		"Ready for a challenge? Your pace shows you can handle the next level.",
		"You're learning fast - {completed} lessons down. Try something harder today.",
		"Quick learners retain more with spaced practice. A short review session would lock it in.",
	},
	engine.StyleUrgency: {
		"Your streak is at stake - a 10-minute lesson today keeps it alive!",
		"Don't let this week slip away. One lesson keeps you on track for your goal.",
		"Time-limited: finish one more lesson today to stay on schedule.",
	},
}

// Segment assigns the behavioral bucket. First match wins.
func Segment(p engine.Predictions, f engine.BehavioralFeatures) engine.Segment {
	switch {
	case p.Engagement > highEngagement && p.CompletionProbability > highCompletion:
		return engine.SegmentHighPerformer
	case p.Engagement < lowEngagement || p.CompletionProbability < lowCompletion:
		return engine.SegmentAtRisk
	case f.LearningVelocity > fastVelocity:
		return engine.SegmentFastLearner
	default:
		return engine.SegmentSteadyLearner
	}
}

// Engine selects nudges. Stateless apart from configuration.
type Engine struct {
	cfg Config
}

// New creates a nudge engine.
func New(cfg Config) *Engine {
	if cfg.ConfidenceSamples <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Optimize picks a style for the user's segment, renders the
// deterministic template choice, and reports selection confidence.
func (e *Engine) Optimize(profile engine.UserProfile, features engine.BehavioralFeatures, predictions engine.Predictions, history []engine.EffectivenessRecord, now time.Time) engine.NudgeResult {
	segment := Segment(predictions, features)
	style, confidence := e.selectStyle(segment, history, now)

	return engine.NudgeResult{
		Style:      style,
		Message:    Render(style, profile, features),
		Confidence: confidence,
		Segment:    segment,
	}
}

// selectStyle prefers the style with the best discounted mean outcome
// over the trailing window; with no history it falls back to the
// static table at confidence 0.5.
func (e *Engine) selectStyle(segment engine.Segment, history []engine.EffectivenessRecord, now time.Time) (engine.NudgeStyle, float64) {
	cutoff := now.AddDate(0, 0, -e.cfg.EffectivenessWindowDays)

	sums := make(map[engine.NudgeStyle]float64)
	counts := make(map[engine.NudgeStyle]int)
	for _, rec := range history {
		if rec.RecordedAt.Before(cutoff) {
			continue
		}
		sums[rec.Style] += rec.Outcome
		counts[rec.Style]++
	}

	if len(counts) == 0 {
		return staticStyles[segment], 0.5
	}

	// Discount each style's mean by min(1, n/ConfidenceSamples) so a
	// style with few observations cannot dominate by noise.
	best := staticStyles[segment]
	bestScore := -1.0
	for _, style := range []engine.NudgeStyle{
		engine.StyleSocial, engine.StyleMotivational,
		engine.StyleEducational, engine.StyleUrgency,
	} {
		n := counts[style]
		if n == 0 {
			continue
		}
		discount := float64(n) / float64(e.cfg.ConfidenceSamples)
		if discount > 1 {
			discount = 1
		}
		score := (sums[style] / float64(n)) * discount
		if score > bestScore {
			best = style
			bestScore = score
		}
	}
	if bestScore > 1 {
		bestScore = 1
	}
	return best, bestScore
}

// TemplateIndex is the deterministic template choice for a user within
// a style: FNV-1a over the user id, modulo the template count. Stable
// across processes, unlike a language hash.
func TemplateIndex(userID string, templateCount int) int {
	if templateCount <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % uint32(templateCount))
}

// Render picks the user's template for the style and substitutes
// personalization placeholders. If any placeholder cannot be resolved
// the raw template text is returned rather than failing.
func Render(style engine.NudgeStyle, profile engine.UserProfile, features engine.BehavioralFeatures) string {
	pool := templates[style]
	if len(pool) == 0 {
		pool = templates[engine.StyleMotivational]
	}
	tmpl := pool[TemplateIndex(profile.UserID, len(pool))]

	rendered, ok := substitute(tmpl, map[string]string{
		"completed": strconv.Itoa(features.CompletedContent),
		"name":      profile.UserID,
	})
	if !ok {
		return tmpl
	}
	return rendered
}

// substitute replaces {key} placeholders. Returns false if the
// template references a key with no value.
func substitute(tmpl string, vars map[string]string) (string, bool) {
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		key := rest[open+1 : open+end]
		val, ok := vars[key]
		if !ok || val == "" {
			return "", false
		}
		b.WriteString(rest[:open])
		b.WriteString(val)
		rest = rest[open+end+1:]
	}
}
