// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	s := NewSession("abc", at)

	assert.Equal(t, "abc", s.ID)
	assert.Empty(t, s.Messages)
	assert.NotNil(t, s.Messages, "messages must serialize as [] not null")
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
}

func TestWithMessage_DoesNotShareBacking(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	base := NewSession("a", at)
	one := base.WithMessage(NewUserMessage("first", at), at)

	two := one.WithMessage(NewAssistantMessage("second", at), at.Add(time.Second))
	three := one.WithMessage(NewAssistantMessage("other", at), at.Add(2*time.Second))

	require.Len(t, one.Messages, 1)
	require.Len(t, two.Messages, 2)
	require.Len(t, three.Messages, 2)
	assert.Equal(t, "second", two.Messages[1].Content)
	assert.Equal(t, "other", three.Messages[1].Content)
	assert.Equal(t, at.Add(time.Second).UnixMilli(), two.UpdatedAt)
}

func TestWithMessage_UpdatedNeverBeforeCreated(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	s := NewSession("a", at).WithMessage(NewUserMessage("x", at), at.Add(-time.Minute))
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
}

func TestTitle(t *testing.T) {
	at := time.Now()
	s := NewSession("a", at)
	assert.Equal(t, DefaultTitle, s.Title())

	s = s.WithMessage(NewAssistantMessage("Welcome aboard", at), at)
	assert.Equal(t, DefaultTitle, s.Title())

	s = s.WithMessage(NewUserMessage("  How do I fix my buoyancy?\nI keep floating up", at), at)
	assert.Equal(t, "How do I fix my buoyancy?", s.Title())
}

func TestSessionJSONLayout(t *testing.T) {
	s := ChatSession{
		ID:        "s1",
		CreatedAt: 1,
		UpdatedAt: 2,
		Messages:  []ChatMessage{{Role: RoleUser, Content: "hi", Timestamp: 1}},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"s1","createdAt":1,"updatedAt":2,"messages":[{"role":"user","content":"hi","timestamp":1}]}`,
		string(data))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
}

func TestStats_RetrievalOnly(t *testing.T) {
	raw := `{"vector_store":{"num_documents":12,"embedding_dimension":null,"total_size_mb":0.4},
		"total_queries":3,"avg_relevance_score":0.812,
		"similarity_method_usage":{"cosine":2,"euclidean":1},
		"top_sources":[{"source":"padi.pdf","count":3}],"recent_queries":[]}`

	var s Stats
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Nil(t, s.Core, "core fields absent")
	require.NotNil(t, s.Retrieval)
	assert.Equal(t, 12, s.Retrieval.VectorStore.NumDocuments)
	assert.Nil(t, s.Retrieval.VectorStore.EmbeddingDimension)
	assert.Equal(t, 2, s.Retrieval.SimilarityMethodUsage.Cosine)
}

func TestStats_CoreOnly(t *testing.T) {
	raw := `{"totalMessages":10,"totalSessions":2,"mostActiveHour":14,"mostActiveDay":"Monday"}`

	var s Stats
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Nil(t, s.Retrieval)
	require.NotNil(t, s.Core)
	assert.Equal(t, 10, s.Core.TotalMessages)
	assert.Equal(t, "Monday", s.Core.MostActiveDay)
}

func TestStats_MarshalFlat(t *testing.T) {
	s := Stats{
		Core:      &Metrics{TotalMessages: 4},
		Retrieval: &RetrievalStats{TotalQueries: 2},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.EqualValues(t, 4, flat["totalMessages"])
	assert.EqualValues(t, 2, flat["total_queries"])

	var back Stats
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Core)
	require.NotNil(t, back.Retrieval)
	assert.Equal(t, 4, back.Core.TotalMessages)
}

func TestStats_RejectsNonObject(t *testing.T) {
	var s Stats
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
}
