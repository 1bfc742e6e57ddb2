// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/kvstore"
	"github.com/jeranaias/divecoach/internal/model"
	"github.com/jeranaias/divecoach/internal/session"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type chatFunc func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error

func (f chatFunc) StreamChat(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
	return f(ctx, req, onChunk)
}

func replyWith(chunks ...string) chatFunc {
	return func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		for _, c := range chunks {
			onChunk(c)
		}
		return nil
	}
}

func newSessions(t *testing.T) *session.Store {
	t.Helper()
	return session.Open(kvstore.NewMemory(), session.Options{Logger: zerolog.Nop()})
}

func assistantCount(s model.ChatSession) int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == model.RoleAssistant {
			n++
		}
	}
	return n
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestSend_AccumulatesChunks(t *testing.T) {
	sessions := newSessions(t)
	var partials []string
	c := New(replyWith("Hel", "lo", " there", "!"), sessions, Options{
		Observer: func(u Update) {
			if u.Chunk != "" {
				partials = append(partials, u.Partial)
			}
		},
	})

	res, err := c.Send(context.Background(), "  Hi coach  ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "Hello there!", res.Reply.Content)
	assert.Equal(t, []string{"Hel", "Hello", "Hello there", "Hello there!"}, partials)

	cur := sessions.ResolveCurrent(res.SessionID)
	require.NotNil(t, cur)
	require.Len(t, cur.Messages, 2)
	assert.Equal(t, model.RoleUser, cur.Messages[0].Role)
	assert.Equal(t, "Hi coach", cur.Messages[0].Content, "user text is trimmed")
	assert.Equal(t, "Hello there!", cur.Messages[1].Content)

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Partial())
}

func TestSend_CreatesAndSelectsSession(t *testing.T) {
	sessions := newSessions(t)
	c := New(replyWith("ok"), sessions, Options{})

	res, err := c.Send(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, sessions.SelectedID())
	assert.Equal(t, 1, sessions.Len())

	res2, err := c.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, res2.SessionID, "follow-ups reuse the selected session")
	assert.Len(t, sessions.Current().Messages, 4)
}

func TestSend_UsesRequestSettings(t *testing.T) {
	var got coachapi.ChatRequest
	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		got = req
		return nil
	}), newSessions(t), Options{Request: coachapi.ChatRequest{Template: coachapi.TemplateAdvanced}})

	_, err := c.Send(context.Background(), "nitrox?")
	require.NoError(t, err)
	assert.Equal(t, "nitrox?", got.UserMessage)
	assert.Equal(t, coachapi.TemplateAdvanced, got.Template)

	c.SetRequest(coachapi.ChatRequest{Template: coachapi.TemplateBeginner})
	_, err = c.Send(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, coachapi.TemplateBeginner, got.Template)
}

func TestSend_TargetVisibleInContext(t *testing.T) {
	sessions := newSessions(t)
	var seen string
	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		seen, _ = TargetFrom(ctx)
		return nil
	}), sessions, Options{})

	res, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, seen)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestSend_ErrorCommitsOneAssistantMessage(t *testing.T) {
	sessions := newSessions(t)
	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		onChunk("half a rep")
		return &coachapi.APIError{StatusCode: 500, Detail: "model overloaded"}
	}), sessions, Options{})

	res, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "Error: model overloaded", res.Reply.Content)

	cur := sessions.ResolveCurrent(res.SessionID)
	require.NotNil(t, cur)
	assert.Equal(t, 1, assistantCount(*cur))
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Partial())
}

func TestSend_Timeout(t *testing.T) {
	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		<-ctx.Done()
		return ctx.Err()
	}), newSessions(t), Options{Timeout: 20 * time.Millisecond})

	res, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "Error: "+context.DeadlineExceeded.Error(), res.Reply.Content)
}

// =============================================================================
// ADMISSION CONTROL
// =============================================================================

func TestSend_BlankInputRejected(t *testing.T) {
	sessions := newSessions(t)
	c := New(replyWith("never"), sessions, Options{})

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := c.Send(context.Background(), in)
		assert.ErrorIs(t, err, ErrBlankInput)
	}
	assert.Equal(t, 0, sessions.Len())
}

func TestSend_BusyRejected(t *testing.T) {
	sessions := newSessions(t)
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		close(started)
		<-release
		onChunk("done")
		return nil
	}), sessions, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	go func() {
		defer wg.Done()
		first, _ = c.Send(context.Background(), "one")
	}()

	<-started
	assert.Equal(t, StateStreaming, c.State())
	_, err := c.Send(context.Background(), "two")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	wg.Wait()

	cur := sessions.ResolveCurrent(first.SessionID)
	require.NotNil(t, cur)
	assert.Len(t, cur.Messages, 2, "rejected send wrote nothing")
}

// =============================================================================
// TARGET PINNING
// =============================================================================

func TestSend_ReplyLandsInOriginalSession(t *testing.T) {
	sessions := newSessions(t)
	original := sessions.CreateSession()
	other := sessions.CreateSession()
	sessions.Select(original.ID)

	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		onChunk("before ")
		sessions.Select(other.ID)
		onChunk("after")
		return nil
	}), sessions, Options{})

	res, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, original.ID, res.SessionID)

	got := sessions.ResolveCurrent(original.ID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "before after", got.Messages[1].Content)
	assert.Empty(t, sessions.ResolveCurrent(other.ID).Messages)
}

func TestSend_UnknownSelectedIDCreatesSession(t *testing.T) {
	sessions := newSessions(t)
	sessions.Select("from-flag")
	c := New(replyWith("hey"), sessions, Options{})

	res, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.NotEqual(t, "from-flag", res.SessionID)
	assert.Equal(t, res.SessionID, sessions.SelectedID())
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancel_KeepsPartialWithMarker(t *testing.T) {
	sessions := newSessions(t)
	var c *Controller
	c = New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		onChunk("Equalize early")
		assert.True(t, c.Cancel())
		<-ctx.Done()
		return ctx.Err()
	}), sessions, Options{})

	res, err := c.Send(context.Background(), "tips?")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, "Equalize early\n\n"+CancelledMarker, res.Reply.Content)
	assert.Equal(t, 1, assistantCount(*sessions.ResolveCurrent(res.SessionID)))
	assert.False(t, c.Cancel(), "nothing left to cancel")
}

func TestCancel_ParentContextNoChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(chatFunc(func(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error {
		cancel()
		return errors.New("request aborted")
	}), newSessions(t), Options{})

	res, err := c.Send(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, CancelledMarker, res.Reply.Content)
	assert.Equal(t, StateIdle, c.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "completing", StateCompleting.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
}
