// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/divecoach/internal/model"
)

func newTestStore(quota int) (*Store, *MemoryBackend) {
	b := NewMemoryBackend(quota)
	return New(b, zerolog.Nop()), b
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_Absent(t *testing.T) {
	s, _ := newTestStore(0)

	var v []model.ChatSession
	res := s.Load("chat_sessions", ShapeArray, &v)

	assert.Equal(t, KindAbsent, res.Kind)
	assert.Nil(t, v)
}

func TestLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(0)

	in := []model.ChatSession{
		{
			ID:        "b",
			CreatedAt: 2000,
			UpdatedAt: 3000,
			Messages: []model.ChatMessage{
				{Role: model.RoleUser, Content: "What is a safety stop?", Timestamp: 2000},
				{Role: model.RoleAssistant, Content: "Three minutes at five metres.", Timestamp: 3000},
			},
		},
		{ID: "a", CreatedAt: 1000, UpdatedAt: 1000, Messages: []model.ChatMessage{}},
	}

	require.True(t, s.Save("chat_sessions", in).OK())

	var out []model.ChatSession
	res := s.Load("chat_sessions", ShapeArray, &out)
	require.True(t, res.OK(), res.String())
	assert.Equal(t, in, out)
}

func TestLoad_CorruptValuesArePurged(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"object", `{"id":"x"}`},
		{"string", `"hello"`},
		{"null", `null`},
		{"number", `42`},
		{"truncated", `[{"id":"x","messages":[`},
		{"garbage", `not json at all`},
		{"wrong element type", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestStore(0)
			require.NoError(t, b.Set("chat_sessions", tt.raw))

			var v []model.ChatSession
			res := s.Load("chat_sessions", ShapeArray, &v)

			assert.Equal(t, KindCorrupt, res.Kind)
			assert.Error(t, res.Err)
			assert.Nil(t, v)

			_, err := b.Get("chat_sessions")
			assert.ErrorIs(t, err, ErrNotFound, "corrupted key should be removed")

			// A second load sees a clean slate.
			assert.Equal(t, KindAbsent, s.Load("chat_sessions", ShapeArray, &v).Kind)
		})
	}
}

func TestLoad_DstUntouchedOnFailure(t *testing.T) {
	s, b := newTestStore(0)
	require.NoError(t, b.Set("k", `[{"id": 5}]`))

	v := []model.ChatSession{{ID: "keep"}}
	res := s.Load("k", ShapeArray, &v)

	assert.Equal(t, KindCorrupt, res.Kind)
	require.Len(t, v, 1)
	assert.Equal(t, "keep", v[0].ID)
}

func TestLoad_NonPointerDst(t *testing.T) {
	s, _ := newTestStore(0)
	var v []model.ChatSession
	res := s.Load("k", ShapeArray, v)
	assert.Equal(t, KindUnavailable, res.Kind)
}

func TestLoad_Unavailable(t *testing.T) {
	s, b := newTestStore(0)
	require.NoError(t, b.Set("k", `[]`))
	b.SetDisabled(true)

	var v []int
	res := s.Load("k", ShapeArray, &v)
	assert.Equal(t, KindUnavailable, res.Kind)

	// Unavailable storage must not be mistaken for corruption.
	b.SetDisabled(false)
	_, err := b.Get("k")
	assert.NoError(t, err)
}

// =============================================================================
// SAVE / REMOVE TESTS
// =============================================================================

func TestSave_QuotaExceeded(t *testing.T) {
	s, b := newTestStore(64)

	require.True(t, s.Save("k", []string{"short"}).OK())

	res := s.Save("k", []string{strings.Repeat("x", 200)})
	assert.Equal(t, KindWriteFailed, res.Kind)
	assert.True(t, errors.Is(res.Err, ErrQuotaExceeded))
	assert.False(t, res.Durable())

	// Previous value survives a failed write.
	raw, err := b.Get("k")
	require.NoError(t, err)
	assert.Equal(t, `["short"]`, raw)
}

func TestSave_Disabled(t *testing.T) {
	s, b := newTestStore(0)
	b.SetDisabled(true)

	res := s.Save("k", 1)
	assert.Equal(t, KindUnavailable, res.Kind)
}

func TestSave_Unserializable(t *testing.T) {
	s, _ := newTestStore(0)
	res := s.Save("k", make(chan int))
	assert.Equal(t, KindWriteFailed, res.Kind)
}

func TestRemove_Idempotent(t *testing.T) {
	s, _ := newTestStore(0)
	require.True(t, s.Save("k", 1).OK())

	assert.True(t, s.Remove("k").OK())
	assert.True(t, s.Remove("k").OK())

	var v int
	assert.Equal(t, KindAbsent, s.Load("k", ShapeAny, &v).Kind)
}

func TestRaw(t *testing.T) {
	s, _ := newTestStore(0)
	require.True(t, s.SaveRaw("ai-chat-theme", "hacker").OK())

	v, res := s.LoadRaw("ai-chat-theme")
	require.True(t, res.OK())
	assert.Equal(t, "hacker", v)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "corrupt", KindCorrupt.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
