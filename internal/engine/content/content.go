// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package content implements content-based filtering. Each catalog item
// gets a feature vector (TF-IDF lexical terms plus z-scored numeric
// fields) built once per training cycle; request-path scoring applies
// difficulty and content-type gates followed by a rule-based score.
package content

import (
	"math"
	"sort"
	"strings"

	"github.com/learnpulse/learnpulse/internal/engine"
)

// Config holds content-based filtering parameters.
type Config struct {
	// VocabularySize caps the TF-IDF vocabulary, keeping the terms with
	// the highest document frequency. Default: 500.
	VocabularySize int `koanf:"vocabulary_size"`

	// FallbackLimit bounds the relaxed-gate fallback list. Default: 5.
	FallbackLimit int `koanf:"fallback_limit"`

	// ShortDurationMin is the inclusive duration bound that earns the
	// short-content bonus. Default: 20.
	ShortDurationMin int `koanf:"short_duration_min"`
}

// DefaultConfig returns the default content-based configuration.
func DefaultConfig() Config {
	return Config{VocabularySize: 500, FallbackLimit: 5, ShortDurationMin: 20}
}

// Scoring weights for the rule-based relevance score.
const (
	styleMatchWeight    = 0.3
	topicOverlapWeight  = 0.2
	shortDurationWeight = 0.1
	pointsWeightCap     = 0.2
	pointsDivisor       = 200.0
)

// stopwords removed before TF-IDF weighting.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "how": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "will": {}, "with": {}, "you": {},
	"your": {},
}

// Feature is one item's built feature vector.
type Feature struct {
	// Lexical maps vocabulary index to TF-IDF weight, l2-normalized.
	Lexical map[int]float64

	// Numeric is [duration, points, difficulty ordinal], z-scored
	// across the catalog.
	Numeric []float64
}

// Model is the trained content-based state, read-only after Build.
type Model struct {
	Cfg     Config
	Catalog []engine.ContentItem
	Index   map[int64]int

	// Vocabulary maps term to vocabulary index.
	Vocabulary map[string]int
	Features   []Feature
}

// Build computes per-item feature vectors for the catalog.
func Build(catalog []engine.ContentItem, cfg Config) *Model {
	if cfg.VocabularySize <= 0 {
		cfg = DefaultConfig()
	}

	m := &Model{
		Cfg:     cfg,
		Catalog: make([]engine.ContentItem, len(catalog)),
		Index:   make(map[int64]int, len(catalog)),
	}
	copy(m.Catalog, catalog)
	sort.Slice(m.Catalog, func(a, b int) bool { return m.Catalog[a].ID < m.Catalog[b].ID })
	for i, item := range m.Catalog {
		m.Index[item.ID] = i
	}

	docs := make([][]string, len(m.Catalog))
	for i, item := range m.Catalog {
		docs[i] = tokenize(item.Title + " " + item.Body + " " + strings.Join(item.Tags, " "))
	}

	m.Vocabulary = buildVocabulary(docs, cfg.VocabularySize)
	m.Features = make([]Feature, len(m.Catalog))
	idf := inverseDocFrequency(docs, m.Vocabulary)
	for i, doc := range docs {
		m.Features[i].Lexical = tfidf(doc, m.Vocabulary, idf)
	}

	numeric := make([][]float64, len(m.Catalog))
	for i, item := range m.Catalog {
		numeric[i] = []float64{
			float64(item.DurationMin),
			float64(item.Points),
			float64(item.Difficulty),
		}
	}
	for col := 0; col < 3; col++ {
		zscoreColumn(numeric, col)
	}
	for i := range m.Features {
		m.Features[i].Numeric = numeric[i]
	}

	return m
}

// Recommend scores catalog items against a user profile. The fallback
// flag reports that the difficulty and type gates excluded everything
// and the relaxed beginner list was served instead.
func (m *Model) Recommend(profile engine.UserProfile, excluded map[int64]struct{}, k int) (items []engine.ScoredItem, fallback bool) {
	completed := len(profile.CompletedIDs)

	candidates := make([]engine.ScoredItem, 0, len(m.Catalog))
	for _, item := range m.Catalog {
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		if !passesDifficultyGate(item.Difficulty, completed) {
			continue
		}
		if !passesTypeGate(item.Type, profile.PreferredTypes) {
			continue
		}
		candidates = append(candidates, engine.ScoredItem{
			ContentID: item.ID,
			Score:     m.ruleScore(item, profile),
		})
	}

	if len(candidates) == 0 {
		return m.relaxedFallback(excluded), true
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].ContentID < candidates[b].ContentID
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, false
}

// SimilarItems returns the n items most similar to contentID by cosine
// over the combined feature vector. Unknown ids return an empty list.
func (m *Model) SimilarItems(contentID int64, n int) []engine.ScoredItem {
	src, ok := m.Index[contentID]
	if !ok {
		return nil
	}

	out := make([]engine.ScoredItem, 0, len(m.Catalog)-1)
	for i, item := range m.Catalog {
		if i == src {
			continue
		}
		out = append(out, engine.ScoredItem{
			ContentID: item.ID,
			Score:     featureCosine(m.Features[src], m.Features[i]),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].ContentID < out[b].ContentID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// passesDifficultyGate enforces progression: fewer than 5 completions
// restricts to beginner content; 10 or more excludes beginner content.
func passesDifficultyGate(tier engine.Difficulty, completed int) bool {
	if completed < 5 {
		return tier == engine.DifficultyBeginner
	}
	if completed >= 10 {
		return tier != engine.DifficultyBeginner
	}
	return true
}

// passesTypeGate restricts to the user's preferred content types when
// any are known.
func passesTypeGate(ct engine.ContentType, preferred []engine.ContentType) bool {
	if len(preferred) == 0 {
		return true
	}
	for _, p := range preferred {
		if p == ct {
			return true
		}
	}
	return false
}

// ruleScore is the rule-based relevance score for one gated candidate.
func (m *Model) ruleScore(item engine.ContentItem, profile engine.UserProfile) float64 {
	var score float64

	if styleMatches(profile.LearningStyle, item.Type) {
		score += styleMatchWeight
	}

	overlap := 0
	for _, topic := range profile.Topics {
		for _, tag := range item.Tags {
			if strings.EqualFold(topic, tag) {
				overlap++
				break
			}
		}
	}
	score += topicOverlapWeight * float64(overlap)

	if item.DurationMin <= m.Cfg.ShortDurationMin {
		score += shortDurationWeight
	}

	pts := float64(item.Points) / pointsDivisor
	if pts > pointsWeightCap {
		pts = pointsWeightCap
	}
	score += pts

	return score
}

// styleMatches maps a learning style to the content types that suit it.
func styleMatches(style string, ct engine.ContentType) bool {
	switch strings.ToLower(style) {
	case "visual":
		return ct == engine.ContentVideo || ct == engine.ContentLesson
	case "reading":
		return ct == engine.ContentArticle
	case "practical", "kinesthetic":
		return ct == engine.ContentChallenge
	default:
		return false
	}
}

// relaxedFallback returns the lowest-difficulty unclaimed items so the
// engine never returns nothing when catalog data exists.
func (m *Model) relaxedFallback(excluded map[int64]struct{}) []engine.ScoredItem {
	type ranked struct {
		item engine.ContentItem
	}
	pool := make([]ranked, 0, len(m.Catalog))
	for _, item := range m.Catalog {
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		pool = append(pool, ranked{item: item})
	}
	if len(pool) == 0 {
		return nil
	}

	sort.Slice(pool, func(a, b int) bool {
		if pool[a].item.Difficulty != pool[b].item.Difficulty {
			return pool[a].item.Difficulty < pool[b].item.Difficulty
		}
		return pool[a].item.ID < pool[b].item.ID
	})

	limit := m.Cfg.FallbackLimit
	if limit <= 0 {
		limit = 5
	}
	if len(pool) > limit {
		pool = pool[:limit]
	}

	out := make([]engine.ScoredItem, len(pool))
	for i, r := range pool {
		out[i] = engine.ScoredItem{ContentID: r.item.ID, Score: 0}
	}
	return out
}

// tokenize lowercases, splits on non-alphanumerics, and drops
// stopwords and single characters.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// buildVocabulary keeps the cap highest-document-frequency terms,
// breaking frequency ties alphabetically for determinism.
func buildVocabulary(docs [][]string, limit int) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(a, b int) bool {
		if df[terms[a]] != df[terms[b]] {
			return df[terms[a]] > df[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}
	return vocab
}

// inverseDocFrequency uses smoothed IDF: ln((1+N)/(1+df)) + 1.
func inverseDocFrequency(docs [][]string, vocab map[string]int) []float64 {
	df := make([]int, len(vocab))
	for _, doc := range docs {
		seen := make(map[int]struct{}, len(doc))
		for _, term := range doc {
			if idx, ok := vocab[term]; ok {
				if _, dup := seen[idx]; !dup {
					seen[idx] = struct{}{}
					df[idx]++
				}
			}
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return idf
}

// tfidf computes the l2-normalized TF-IDF vector for one document.
func tfidf(doc []string, vocab map[string]int, idf []float64) map[int]float64 {
	counts := make(map[int]float64)
	for _, term := range doc {
		if idx, ok := vocab[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return counts
	}

	total := float64(len(doc))
	var normSq float64
	for idx, c := range counts {
		w := (c / total) * idf[idx]
		counts[idx] = w
		normSq += w * w
	}
	norm := math.Sqrt(normSq)
	if norm > 0 {
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

// zscoreColumn normalizes one numeric column in place.
func zscoreColumn(rows [][]float64, col int) {
	n := float64(len(rows))
	if n == 0 {
		return
	}
	var sum float64
	for _, row := range rows {
		sum += row[col]
	}
	mean := sum / n

	var variance float64
	for _, row := range rows {
		d := row[col] - mean
		variance += d * d
	}
	std := math.Sqrt(variance / n)
	if std == 0 {
		for _, row := range rows {
			row[col] = 0
		}
		return
	}
	for _, row := range rows {
		row[col] = (row[col] - mean) / std
	}
}

// featureCosine is cosine similarity over the concatenated lexical and
// numeric parts of two feature vectors.
func featureCosine(a, b Feature) float64 {
	var dot, normA, normB float64

	for idx, w := range a.Lexical {
		dot += w * b.Lexical[idx]
		normA += w * w
	}
	for _, w := range b.Lexical {
		normB += w * w
	}
	for i := range a.Numeric {
		dot += a.Numeric[i] * b.Numeric[i]
		normA += a.Numeric[i] * a.Numeric[i]
		normB += b.Numeric[i] * b.Numeric[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
