// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/divecoach/internal/model"
)

// =============================================================================
// COMPUTE
// =============================================================================

func at(day, hour int) time.Time {
	// 2024-06-02 is a Sunday.
	return time.Date(2024, 6, 2+day, hour, 0, 0, 0, time.UTC)
}

func sampleSessions() []model.ChatSession {
	a := model.NewSession("a", at(0, 9))
	a = a.WithMessage(model.NewUserMessage("How do I equalize", at(0, 9)), at(0, 9))
	a = a.WithMessage(model.NewAssistantMessage("Pinch and blow gently", at(0, 9)), at(0, 9).Add(10*time.Minute))

	b := model.NewSession("b", at(1, 14))
	b = b.WithMessage(model.NewUserMessage("Nitrox limits?", at(1, 14)), at(1, 14))
	b = b.WithMessage(model.NewAssistantMessage("It depends on the mix", at(1, 14)), at(1, 14))
	b = b.WithMessage(model.NewUserMessage("EAN32 then", at(1, 14)), at(1, 14).Add(20*time.Minute))
	b = b.WithMessage(model.NewAssistantMessage("About 34 meters", at(1, 14)), at(1, 14).Add(20*time.Minute))

	return []model.ChatSession{b, a}
}

func TestCompute(t *testing.T) {
	m := Compute(sampleSessions(), time.UTC)

	assert.Equal(t, 6, m.TotalMessages)
	assert.Equal(t, 2, m.TotalSessions)
	assert.InDelta(t, 3.0, m.AvgMessagesPerSession, 1e-9)
	assert.InDelta(t, 15.0, m.AvgSessionDuration, 1e-9)

	// 4+4+2+5+2+3 words over 6 messages; assistant: 4+5+3 over 3.
	assert.InDelta(t, 20.0/6, m.AvgWordCount, 1e-9)
	assert.InDelta(t, 4.0, m.AvgResponseLength, 1e-9)

	assert.Equal(t, []model.DailyCount{{Date: "2024-06-02", Count: 2}, {Date: "2024-06-03", Count: 4}}, m.MessagesOverTime)
	assert.Equal(t, 14, m.MostActiveHour)
	assert.Equal(t, "Monday", m.MostActiveDay)
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil, time.UTC)
	assert.Zero(t, m.TotalMessages)
	assert.Zero(t, m.AvgMessagesPerSession)
	assert.NotNil(t, m.MessagesOverTime)
	assert.Empty(t, m.MostActiveDay)

	m = Compute([]model.ChatSession{model.NewSession("x", at(0, 0))}, time.UTC)
	assert.Equal(t, 1, m.TotalSessions)
	assert.Zero(t, m.AvgWordCount)
}

func TestCompute_TieBreaksToEarliest(t *testing.T) {
	s := model.NewSession("t", at(0, 3))
	s = s.WithMessage(model.NewUserMessage("a", at(0, 3)), at(0, 3))
	s = s.WithMessage(model.NewUserMessage("b", at(1, 1)), at(1, 1))

	m := Compute([]model.ChatSession{s}, time.UTC)
	assert.Equal(t, 1, m.MostActiveHour)
	assert.Equal(t, "Sunday", m.MostActiveDay)
}

// =============================================================================
// FORMAT
// =============================================================================

func TestFormatHour(t *testing.T) {
	tests := map[int]string{
		0:  "12:00 AM",
		1:  "1:00 AM",
		11: "11:00 AM",
		12: "12:00 PM",
		13: "1:00 PM",
		23: "11:00 PM",
	}
	for h, want := range tests {
		assert.Equal(t, want, FormatHour(h))
	}
}

func TestFormatNumbers(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "12", FormatCount(12))
	assert.Equal(t, "1,234.5", FormatDecimal(1234.5, 1))
	assert.Equal(t, "3.5 min", FormatMinutes(3.46))
	assert.Equal(t, "25%", FormatPercent(1, 4))
	assert.Equal(t, "0%", FormatPercent(1, 0))
}

// =============================================================================
// SOURCES
// =============================================================================

type fetcherFunc func(ctx context.Context) (*model.Stats, error)

func (f fetcherFunc) FetchStats(ctx context.Context) (*model.Stats, error) { return f(ctx) }

func TestLocal(t *testing.T) {
	src := &Local{Sessions: sampleSessions, Location: time.UTC}
	stats, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Core)
	assert.Nil(t, stats.Retrieval)
	assert.Equal(t, 6, stats.Core.TotalMessages)
}

func TestMock_Ranges(t *testing.T) {
	src := NewMock(rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 50; i++ {
		stats, err := src.Fetch(context.Background())
		require.NoError(t, err)
		m := stats.Core
		assert.GreaterOrEqual(t, m.TotalMessages, 100)
		assert.Less(t, m.TotalMessages, 600)
		assert.GreaterOrEqual(t, m.TotalSessions, 10)
		assert.Less(t, m.TotalSessions, 60)
		assert.GreaterOrEqual(t, m.AvgWordCount, 50.0)
		assert.Less(t, m.AvgWordCount, 250.0)
		assert.GreaterOrEqual(t, m.MostActiveHour, 0)
		assert.Less(t, m.MostActiveHour, 24)
		assert.Len(t, m.MessagesOverTime, 7)
	}
}

func TestMerged_RetrievalFailureKeepsCore(t *testing.T) {
	src := &Merged{
		Core: &Local{Sessions: sampleSessions, Location: time.UTC},
		Retrieval: &Remote{Client: fetcherFunc(func(ctx context.Context) (*model.Stats, error) {
			return nil, errors.New("connection refused")
		})},
		Logger: zerolog.Nop(),
	}

	stats, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Core)
	assert.Nil(t, stats.Retrieval)
}

func TestMerged_CombinesGroups(t *testing.T) {
	remote := &Remote{Client: fetcherFunc(func(ctx context.Context) (*model.Stats, error) {
		return &model.Stats{
			Core:      &model.Metrics{TotalMessages: 999},
			Retrieval: &model.RetrievalStats{TotalQueries: 4},
		}, nil
	})}
	src := &Merged{Core: &Local{Sessions: sampleSessions}, Retrieval: remote}

	stats, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Core.TotalMessages, "core comes from the core source")
	assert.Equal(t, 4, stats.Retrieval.TotalQueries)
}

func TestMerged_CoreFailure(t *testing.T) {
	src := &Merged{
		Core:      &Remote{},
		Retrieval: &Local{},
	}
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	for _, name := range SourceNames {
		src, err := NewSource(name, Deps{})
		require.NoError(t, err)
		assert.Equal(t, name, src.Name())
	}
	src, err := NewSource("", Deps{})
	require.NoError(t, err)
	assert.Equal(t, SourceMerged, src.Name())

	_, err = NewSource("prometheus", Deps{})
	assert.Error(t, err)
}
