// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package behavior

import (
	"math"

	"github.com/learnpulse/learnpulse/internal/engine"
)

// Config holds behavioral predictor training parameters.
type Config struct {
	// MinTrainUsers is the minimum cohort size before the fitted model
	// replaces cold-start estimates. Default: 10.
	MinTrainUsers int `koanf:"min_train_users"`

	// LearningRate for gradient descent. Default: 0.05.
	LearningRate float64 `koanf:"learning_rate"`

	// Epochs of full-batch gradient descent. Default: 300.
	Epochs int `koanf:"epochs"`

	// L2 is the ridge penalty applied to all three fits. Default: 0.01.
	L2 float64 `koanf:"l2"`
}

// DefaultConfig returns the default predictor configuration.
func DefaultConfig() Config {
	return Config{MinTrainUsers: 10, LearningRate: 0.05, Epochs: 300, L2: 0.01}
}

// Training labels.
const (
	completionLabelThreshold = 0.7
	churnLabelDays           = 7.0
)

// Model is the trained behavioral predictor. Fitted weights include a
// trailing bias term. Exported fields for gob snapshots; read-only.
type Model struct {
	Cfg Config

	Trained      bool
	TrainedUsers int

	HorizonEnc LabelEncoder
	StyleEnc   LabelEncoder
	Scale      Scaler

	// EngWeights is a ridge regression for the engagement score;
	// CompWeights and ChurnWeights are logistic classifiers.
	EngWeights   []float64
	CompWeights  []float64
	ChurnWeights []float64
}

// Train fits the predictor on a cohort of derived feature bags. Cohorts
// smaller than MinTrainUsers leave the model in cold-start mode.
func Train(cohort []engine.BehavioralFeatures, cfg Config) *Model {
	if cfg.Epochs <= 0 {
		cfg = DefaultConfig()
	}
	m := &Model{Cfg: cfg, TrainedUsers: len(cohort)}
	if len(cohort) < cfg.MinTrainUsers {
		return m
	}

	horizons := make([]string, len(cohort))
	styles := make([]string, len(cohort))
	for i, f := range cohort {
		horizons[i] = f.TimeHorizon
		styles[i] = f.LearningStyle
	}
	m.HorizonEnc = FitLabels(horizons)
	m.StyleEnc = FitLabels(styles)

	raw := make([][]float64, len(cohort))
	for i, f := range cohort {
		raw[i] = m.rawVector(f)
	}
	m.Scale = FitScaler(raw)

	x := make([][]float64, len(cohort))
	for i, row := range raw {
		x[i] = augment(m.Scale.Transform(row))
	}

	engLabels := make([]float64, len(cohort))
	compLabels := make([]float64, len(cohort))
	churnLabels := make([]float64, len(cohort))
	for i, f := range cohort {
		engLabels[i] = clamp01(float64(f.ActiveDays) * f.CompletionRate * f.AvgTimeSpentMin / 100)
		if f.CompletionRate > completionLabelThreshold {
			compLabels[i] = 1
		}
		if f.DaysSinceLast > churnLabelDays {
			churnLabels[i] = 1
		}
	}

	m.EngWeights = fitLinear(x, engLabels, cfg)
	m.CompWeights = fitLogistic(x, compLabels, cfg)
	m.ChurnWeights = fitLogistic(x, churnLabels, cfg)
	m.Trained = true
	return m
}

// Predict returns the three risk scores for one user. Fitted mode is
// used when trained; any per-user encoding problem falls back to the
// cold-start estimate for that user only.
func (m *Model) Predict(features engine.BehavioralFeatures) engine.Predictions {
	if m == nil || !m.Trained {
		return ColdStart(features)
	}

	row := m.rawVector(features)
	if !finite(row) {
		return ColdStart(features)
	}
	x := augment(m.Scale.Transform(row))

	return engine.Predictions{
		Engagement:            clamp01(dot(m.EngWeights, x)),
		CompletionProbability: sigmoid(dot(m.CompWeights, x)),
		ChurnRisk:             sigmoid(dot(m.ChurnWeights, x)),
		Source:                engine.PredictionSourceModel,
	}
}

// ColdStart is the deterministic fallback estimate used before the
// first fit or when a user's features cannot be encoded.
func ColdStart(f engine.BehavioralFeatures) engine.Predictions {
	eng := (math.Min(2*f.CompletionRate, 1) +
		math.Min(f.LearningVelocity/3, 1) +
		math.Min(float64(f.SessionCount)/20, 1)) / 3

	return engine.Predictions{
		Engagement:            clamp01(eng),
		CompletionProbability: 0.5,
		ChurnRisk:             0.5,
		Source:                engine.PredictionSourceColdStart,
	}
}

// rawVector builds the numeric feature row in a fixed column order.
func (m *Model) rawVector(f engine.BehavioralFeatures) []float64 {
	return []float64{
		float64(f.TotalContent),
		float64(f.CompletedContent),
		f.AvgTimeSpentMin,
		float64(f.ActiveDays),
		float64(f.TotalEvents),
		f.CompletionRate,
		f.LearningVelocity,
		f.DaysSinceLast,
		float64(f.SessionCount),
		m.HorizonEnc.Encode(f.TimeHorizon),
		m.StyleEnc.Encode(f.LearningStyle),
	}
}

// fitLinear runs full-batch gradient descent on squared error with a
// ridge penalty. Rows are pre-augmented with a bias column.
func fitLinear(x [][]float64, y []float64, cfg Config) []float64 {
	w := make([]float64, len(x[0]))
	n := float64(len(x))
	grad := make([]float64, len(w))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for j := range grad {
			grad[j] = cfg.L2 * w[j]
		}
		for i, row := range x {
			err := dot(w, row) - y[i]
			for j, v := range row {
				grad[j] += err * v / n
			}
		}
		for j := range w {
			w[j] -= cfg.LearningRate * grad[j]
		}
	}
	return w
}

// fitLogistic runs full-batch gradient descent on log loss with a
// ridge penalty.
func fitLogistic(x [][]float64, y []float64, cfg Config) []float64 {
	w := make([]float64, len(x[0]))
	n := float64(len(x))
	grad := make([]float64, len(w))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for j := range grad {
			grad[j] = cfg.L2 * w[j]
		}
		for i, row := range x {
			err := sigmoid(dot(w, row)) - y[i]
			for j, v := range row {
				grad[j] += err * v / n
			}
		}
		for j := range w {
			w[j] -= cfg.LearningRate * grad[j]
		}
	}
	return w
}

// augment appends the bias column.
func augment(row []float64) []float64 {
	out := make([]float64, len(row)+1)
	copy(out, row)
	out[len(row)] = 1
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func finite(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
