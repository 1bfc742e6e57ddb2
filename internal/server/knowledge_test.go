// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/model"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	passages, err := LoadKnowledge()
	require.NoError(t, err)
	require.NotEmpty(t, passages)
	return NewIndex(passages)
}

// =============================================================================
// INDEX
// =============================================================================

func TestLoadKnowledge(t *testing.T) {
	passages, err := LoadKnowledge()
	require.NoError(t, err)
	for _, p := range passages {
		assert.NotEmpty(t, p.Source)
		assert.NotEmpty(t, p.Text)
	}
}

func TestIndex_Search(t *testing.T) {
	idx := testIndex(t)

	for _, method := range coachapi.SimilarityMethods {
		t.Run(method, func(t *testing.T) {
			hits := idx.Search("How do I equalize during the descent?", DefaultTopK, method)
			require.NotEmpty(t, hits)
			assert.LessOrEqual(t, len(hits), DefaultTopK)

			sources := make([]string, 0, len(hits))
			for i, h := range hits {
				sources = append(sources, h.Source)
				assert.Greater(t, h.Score, 0.0)
				assert.LessOrEqual(t, h.Score, 1.0+1e-9)
				if i > 0 {
					assert.GreaterOrEqual(t, hits[i-1].Score, h.Score, "hits sorted best first")
				}
			}
			assert.Contains(t, sources, "AIDA2_Manual.pdf")
		})
	}
}

func TestIndex_SearchEdgeCases(t *testing.T) {
	idx := testIndex(t)

	assert.Empty(t, idx.Search("", DefaultTopK, coachapi.SimilarityCosine))
	assert.Empty(t, idx.Search("the and for", DefaultTopK, coachapi.SimilarityCosine), "stopwords only")
	assert.Empty(t, idx.Search("equalize", 0, coachapi.SimilarityCosine))
	assert.Len(t, idx.Search("dive diver diving buddy surface", 1, coachapi.SimilarityCosine), 1)

	empty := NewIndex(nil)
	assert.Zero(t, empty.Len())
	assert.Empty(t, empty.Search("equalize", DefaultTopK, coachapi.SimilarityCosine))
	assert.Equal(t, model.VectorStoreStats{}, empty.Stats())
}

func TestIndex_Stats(t *testing.T) {
	idx := NewIndex([]Passage{
		{Source: "a.txt", Text: "buddy watches surface"},
		{Source: "b.txt", Text: "buddy equalize"},
	})
	stats := idx.Stats()
	assert.Equal(t, 2, stats.NumDocuments)
	require.NotNil(t, stats.EmbeddingDimension)
	assert.Equal(t, 4, *stats.EmbeddingDimension)
	assert.Equal(t, 0.0, stats.TotalSizeMB)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"equalize", "early", "often"}, tokenize("Equalize EARLY, and often!"))
	assert.Empty(t, tokenize("a an of"))
}

// =============================================================================
// COACH
// =============================================================================

func TestCoach_CitesSources(t *testing.T) {
	coach := NewCoach(testIndex(t))

	reply, err := coach.Respond(context.Background(), coachapi.ChatRequest{
		UserMessage:      "buddy blackout after surfacing",
		Template:         coachapi.TemplateAdvanced,
		SimilarityMethod: coachapi.SimilarityCosine,
	})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Hits)
	for i, h := range reply.Hits {
		assert.Contains(t, reply.Text, fmt.Sprintf("[Source %d] %s", i+1, h.Source))
	}
	assert.Contains(t, reply.Text, "Progress in small increments")
}

func TestCoach_CanceledContext(t *testing.T) {
	coach := NewCoach(testIndex(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := coach.Respond(ctx, coachapi.ChatRequest{UserMessage: "equalize"})
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// TRACKER
// =============================================================================

func TestTracker_Snapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	tr := NewTracker(func() time.Time { return now })

	// Six sources with distinct counts: s1 once, s2 twice, ... s6 six times.
	for n := 1; n <= 6; n++ {
		for i := 0; i < n; i++ {
			tr.Record([]Hit{{Passage: Passage{Source: fmt.Sprintf("docs/s%d.pdf", n)}, Score: 0.5}}, coachapi.SimilarityCosine)
		}
	}
	tr.Record([]Hit{
		{Passage: Passage{Source: "s6.pdf"}, Score: 0.12345},
		{Passage: Passage{Source: ""}, Score: 0.5},
	}, coachapi.SimilarityEuclidean)
	tr.Record(nil, coachapi.SimilarityEuclidean)

	snap := tr.Snapshot(model.VectorStoreStats{NumDocuments: 10})

	assert.Equal(t, 22, snap.TotalQueries)
	assert.Equal(t, 23, snap.TotalDocumentsRetrieved)
	assert.InDelta(t, 23.0/22.0, snap.AvgDocumentsPerQuery, 1e-9)
	assert.Equal(t, 21, snap.SimilarityMethodUsage.Cosine)
	assert.Equal(t, 1, snap.SimilarityMethodUsage.Euclidean)
	assert.Equal(t, 10, snap.VectorStore.NumDocuments)

	// (22*0.5 + 0.12345) / 23, rounded to three places.
	assert.Equal(t, 0.484, snap.AvgRelevanceScore)

	require.Len(t, snap.TopSources, TopSourcesLimit)
	assert.Equal(t, model.SourceCount{Source: "s6.pdf", Count: 7}, snap.TopSources[0])
	assert.Equal(t, "s2.pdf", snap.TopSources[4].Source)

	require.Len(t, snap.RecentQueries, RecentQueriesLimit)
	assert.Equal(t, 2, snap.RecentQueries[RecentQueriesLimit-1].NumResults)
	assert.Equal(t, "2025-03-01T09:30:00.000000", snap.RecentQueries[0].Timestamp)
}

func TestTracker_Empty(t *testing.T) {
	snap := NewTracker(nil).Snapshot(model.VectorStoreStats{})
	assert.Zero(t, snap.TotalQueries)
	assert.Zero(t, snap.AvgDocumentsPerQuery)
	assert.NotNil(t, snap.TopSources)
	assert.NotNil(t, snap.RecentQueries)
}
