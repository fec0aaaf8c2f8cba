// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package collab implements user-user collaborative filtering over the
// interaction matrix. A Model is built once per training cycle and is
// read-only afterwards; all request-path methods are pure lookups.
package collab

import (
	"math"
	"sort"

	"github.com/learnpulse/learnpulse/internal/engine"
)

// Config holds collaborative filtering parameters.
type Config struct {
	// Neighbors is the number of most-similar users consulted per
	// recommendation. Default: 5.
	Neighbors int `koanf:"neighbors"`

	// MinNeighborScore is the exclusive lower bound on a neighbor's
	// rating for an item to contribute. Default: 0.5.
	MinNeighborScore float64 `koanf:"min_neighbor_score"`
}

// DefaultConfig returns the default collaborative filtering configuration.
func DefaultConfig() Config {
	return Config{Neighbors: 5, MinNeighborScore: 0.5}
}

// Model is the trained collaborative filtering state. All fields are
// exported so snapshots can be gob-encoded; treat them as read-only.
type Model struct {
	Cfg Config

	// Users and Items are the matrix axes in their fixed build order:
	// users sorted ascending, items sorted by ascending content id.
	// Both cover only entities with at least one interaction.
	Users []string
	Items []int64

	UserIndex map[string]int
	ItemIndex map[int64]int

	// Ratings is the raw user x item score matrix in {0, 0.5, 1}.
	Ratings [][]float64

	// UserSim and ItemSim are cosine similarity matrices computed over
	// z-score normalized rows and columns respectively.
	UserSim [][]float64
	ItemSim [][]float64
}

// Build constructs the interaction matrix and similarity matrices from
// raw history. Users and items absent from every interaction are
// excluded; duplicate (user, item) pairs keep the highest score.
func Build(interactions []engine.InteractionRecord, cfg Config) *Model {
	if cfg.Neighbors <= 0 {
		cfg = DefaultConfig()
	}

	userSet := make(map[string]struct{})
	itemSet := make(map[int64]struct{})
	for _, it := range interactions {
		userSet[it.UserID] = struct{}{}
		itemSet[it.ContentID] = struct{}{}
	}

	m := &Model{
		Cfg:       cfg,
		Users:     make([]string, 0, len(userSet)),
		Items:     make([]int64, 0, len(itemSet)),
		UserIndex: make(map[string]int, len(userSet)),
		ItemIndex: make(map[int64]int, len(itemSet)),
	}
	for u := range userSet {
		m.Users = append(m.Users, u)
	}
	for i := range itemSet {
		m.Items = append(m.Items, i)
	}
	sort.Strings(m.Users)
	sort.Slice(m.Items, func(a, b int) bool { return m.Items[a] < m.Items[b] })
	for idx, u := range m.Users {
		m.UserIndex[u] = idx
	}
	for idx, i := range m.Items {
		m.ItemIndex[i] = idx
	}

	m.Ratings = make([][]float64, len(m.Users))
	for i := range m.Ratings {
		m.Ratings[i] = make([]float64, len(m.Items))
	}
	for _, it := range interactions {
		u := m.UserIndex[it.UserID]
		c := m.ItemIndex[it.ContentID]
		if s := it.Status.Score(); s > m.Ratings[u][c] {
			m.Ratings[u][c] = s
		}
	}

	m.UserSim = similarityMatrix(normalizeRows(m.Ratings))
	m.ItemSim = similarityMatrix(normalizeRows(transpose(m.Ratings)))
	return m
}

// Recommend returns the top-k items for userID scored by neighbor
// agreement. A user absent from the matrix gets an empty list.
func (m *Model) Recommend(userID string, k int) []engine.ScoredItem {
	u, ok := m.UserIndex[userID]
	if !ok {
		return nil
	}

	neighbors := m.topNeighbors(u, m.Cfg.Neighbors)

	scores := make(map[int]float64)
	for _, n := range neighbors {
		for j, r := range m.Ratings[n.index] {
			if r > m.Cfg.MinNeighborScore && m.Ratings[u][j] == 0 {
				scores[j] += r * n.sim
			}
		}
	}

	ranked := make([]engine.ScoredItem, 0, len(scores))
	for j, s := range scores {
		ranked = append(ranked, engine.ScoredItem{ContentID: m.Items[j], Score: s})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		return ranked[a].ContentID < ranked[b].ContentID
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Similarity returns the cosine similarity between two users, or 0 if
// either is absent from the matrix.
func (m *Model) Similarity(a, b string) float64 {
	i, ok := m.UserIndex[a]
	if !ok {
		return 0
	}
	j, ok := m.UserIndex[b]
	if !ok {
		return 0
	}
	return m.UserSim[i][j]
}

// InteractionCount returns the number of non-zero matrix cells.
func (m *Model) InteractionCount() int {
	n := 0
	for _, row := range m.Ratings {
		for _, r := range row {
			if r > 0 {
				n++
			}
		}
	}
	return n
}

type neighbor struct {
	index int
	sim   float64
}

// topNeighbors returns the n most similar users to u, excluding u
// itself and users with non-positive similarity.
func (m *Model) topNeighbors(u, n int) []neighbor {
	candidates := make([]neighbor, 0, len(m.Users)-1)
	for v := range m.Users {
		if v == u {
			continue
		}
		if sim := m.UserSim[u][v]; sim > 0 {
			candidates = append(candidates, neighbor{index: v, sim: sim})
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].sim != candidates[b].sim {
			return candidates[a].sim > candidates[b].sim
		}
		return candidates[a].index < candidates[b].index
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// normalizeRows z-scores each row. Rows with zero variance become all
// zeros so they contribute no similarity.
func normalizeRows(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = zscore(row)
	}
	return out
}

func zscore(row []float64) []float64 {
	n := float64(len(row))
	out := make([]float64, len(row))
	if n == 0 {
		return out
	}

	var sum float64
	for _, v := range row {
		sum += v
	}
	mean := sum / n

	var variance float64
	for _, v := range row {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / n)
	if std == 0 {
		return out
	}

	for i, v := range row {
		out[i] = (v - mean) / std
	}
	return out
}

func transpose(matrix [][]float64) [][]float64 {
	if len(matrix) == 0 {
		return nil
	}
	cols := len(matrix[0])
	out := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]float64, len(matrix))
		for i := range matrix {
			out[j][i] = matrix[i][j]
		}
	}
	return out
}

// similarityMatrix computes pairwise cosine similarity between rows.
func similarityMatrix(rows [][]float64) [][]float64 {
	n := len(rows)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	norms := make([]float64, n)
	for i, row := range rows {
		norms[i] = vectorNorm(row)
	}
	for i := 0; i < n; i++ {
		sim[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := cosine(rows[i], rows[j], norms[i], norms[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

func vectorNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}
