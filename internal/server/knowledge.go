// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/model"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// DefaultTopK is how many passages a chat request retrieves.
const DefaultTopK = 3

// Passage is one retrievable piece of coaching material.
type Passage struct {
	Source string `yaml:"source"`
	Text   string `yaml:"text"`
}

// Hit is a passage scored against a query.
type Hit struct {
	Passage
	Score float64
}

// LoadKnowledge returns the embedded passages.
func LoadKnowledge() ([]Passage, error) {
	var passages []Passage
	if err := yaml.Unmarshal(knowledgeYAML, &passages); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	return passages, nil
}

// =============================================================================
// INDEX
// =============================================================================

// Index is a term-frequency vector index over passages. Read-only after
// NewIndex, safe for concurrent Search.
type Index struct {
	passages []Passage
	vocab    map[string]int
	vectors  [][]float64
}

// NewIndex builds an index over passages.
func NewIndex(passages []Passage) *Index {
	idx := &Index{
		passages: passages,
		vocab:    make(map[string]int),
	}
	for _, p := range passages {
		for _, tok := range tokenize(p.Text) {
			if _, ok := idx.vocab[tok]; !ok {
				idx.vocab[tok] = len(idx.vocab)
			}
		}
	}
	idx.vectors = make([][]float64, len(passages))
	for i, p := range passages {
		idx.vectors[i] = idx.vectorize(p.Text)
	}
	return idx
}

// Len returns the number of indexed passages.
func (idx *Index) Len() int {
	return len(idx.passages)
}

// Search returns up to topK passages sharing at least one term with query,
// best first. method is a coachapi similarity name; unknown means cosine.
func (idx *Index) Search(query string, topK int, method string) []Hit {
	if topK <= 0 || len(idx.passages) == 0 {
		return nil
	}
	q := idx.vectorize(query)
	if norm(q) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(idx.passages))
	for i, v := range idx.vectors {
		if dot(q, v) == 0 {
			continue
		}
		var score float64
		switch method {
		case coachapi.SimilarityEuclidean:
			score = 1 / (1 + distance(unit(q), unit(v)))
		default:
			score = dot(q, v) / (norm(q) * norm(v))
		}
		hits = append(hits, Hit{Passage: idx.passages[i], Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Stats describes the index in the backend's vector store shape.
func (idx *Index) Stats() model.VectorStoreStats {
	if len(idx.passages) == 0 {
		return model.VectorStoreStats{}
	}
	dim := len(idx.vocab)
	bytes := float64(len(idx.passages) * dim * 8)
	return model.VectorStoreStats{
		NumDocuments:       len(idx.passages),
		EmbeddingDimension: &dim,
		TotalSizeMB:        round(bytes/(1024*1024), 2),
	}
}

func (idx *Index) vectorize(text string) []float64 {
	v := make([]float64, len(idx.vocab))
	for _, tok := range tokenize(text) {
		if i, ok := idx.vocab[tok]; ok {
			v[i]++
		}
	}
	return v
}

// =============================================================================
// VECTOR MATH
// =============================================================================

// tokenize lowercases text and keeps words of three or more letters.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= 3 && !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "how": true,
	"what": true, "that": true, "this": true, "are": true, "you": true,
	"can": true, "does": true, "should": true, "from": true, "into": true,
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func unit(v []float64) []float64 {
	n := norm(v)
	out := make([]float64, len(v))
	if n == 0 {
		return out
	}
	for i := range v {
		out[i] = v[i] / n
	}
	return out
}

func distance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
