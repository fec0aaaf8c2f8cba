// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

package behavior

import (
	"math"
	"sort"
)

// LabelEncoder maps categorical strings to stable integer codes.
// Code 0 is reserved for categories unseen at fit time, so inference
// on a new category never fails.
type LabelEncoder struct {
	Classes map[string]int
}

// FitLabels builds an encoder over the distinct values, sorted for
// determinism. Codes start at 1; 0 is the unknown bucket.
func FitLabels(values []string) LabelEncoder {
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	classes := make([]string, 0, len(distinct))
	for v := range distinct {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	enc := LabelEncoder{Classes: make(map[string]int, len(classes))}
	for i, c := range classes {
		enc.Classes[c] = i + 1
	}
	return enc
}

// Encode returns the code for v, or 0 for unseen categories.
func (e LabelEncoder) Encode(v string) float64 {
	return float64(e.Classes[v])
}

// Scaler standardizes feature columns to zero mean, unit variance.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler computes per-column statistics over the rows.
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	cols := len(rows[0])
	s := Scaler{Mean: make([]float64, cols), Std: make([]float64, cols)}

	for _, row := range rows {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s
}

// Transform standardizes one row in place-safe fashion.
func (s Scaler) Transform(row []float64) []float64 {
	if len(s.Mean) != len(row) {
		out := make([]float64, len(row))
		copy(out, row)
		return out
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}
