// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/model"
)

// Limits of the /api/rag-stats report.
const (
	TopSourcesLimit    = 5
	RecentQueriesLimit = 10
)

// Tracker aggregates retrieval statistics of served queries.
// Safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	now func() time.Time

	totalQueries int
	totalDocs    int
	scoreSum     float64
	scoreCount   int
	cosine       int
	euclidean    int
	sources      map[string]int
	queries      []model.QueryRecord
}

// NewTracker creates an empty tracker. now defaults to time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, sources: make(map[string]int)}
}

// Record adds one query and its retrieved passages. Queries without hits
// are not recorded.
func (t *Tracker) Record(hits []Hit, method string) {
	if len(hits) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalQueries++
	t.totalDocs += len(hits)
	switch method {
	case coachapi.SimilarityEuclidean:
		t.euclidean++
	default:
		t.cosine++
	}
	t.queries = append(t.queries, model.QueryRecord{
		Timestamp:  t.now().Format("2006-01-02T15:04:05.000000"),
		NumResults: len(hits),
	})
	for _, h := range hits {
		t.scoreSum += h.Score
		t.scoreCount++
		if h.Source != "" {
			t.sources[filepath.Base(h.Source)]++
		}
	}
}

// Snapshot reports the aggregate in the backend's shape.
func (t *Tracker) Snapshot(store model.VectorStoreStats) model.RetrievalStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := model.RetrievalStats{
		VectorStore:             store,
		TotalQueries:            t.totalQueries,
		TotalDocumentsRetrieved: t.totalDocs,
		SimilarityMethodUsage: model.SimilarityUsage{
			Cosine:    t.cosine,
			Euclidean: t.euclidean,
		},
		TopSources:    []model.SourceCount{},
		RecentQueries: []model.QueryRecord{},
	}
	if t.totalQueries > 0 {
		out.AvgDocumentsPerQuery = float64(t.totalDocs) / float64(t.totalQueries)
	}
	if t.scoreCount > 0 {
		out.AvgRelevanceScore = round(t.scoreSum/float64(t.scoreCount), 3)
	}

	for src, n := range t.sources {
		out.TopSources = append(out.TopSources, model.SourceCount{Source: src, Count: n})
	}
	sort.Slice(out.TopSources, func(i, j int) bool {
		a, b := out.TopSources[i], out.TopSources[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Source < b.Source
	})
	if len(out.TopSources) > TopSourcesLimit {
		out.TopSources = out.TopSources[:TopSourcesLimit]
	}

	start := len(t.queries) - RecentQueriesLimit
	if start < 0 {
		start = 0
	}
	out.RecentQueries = append(out.RecentQueries, t.queries[start:]...)
	return out
}
