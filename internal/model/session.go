// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/divecoach/internal/util"
)

// DefaultTitle is shown for sessions without a user message yet.
const DefaultTitle = "New conversation"

// titleMaxRunes bounds the derived session title.
const titleMaxRunes = 48

// =============================================================================
// SESSION TYPE
// =============================================================================

// ChatSession is a persisted conversation thread.
//
// Messages is append-only and in chronological order. UpdatedAt is bumped on
// every append and is never less than CreatedAt.
type ChatSession struct {
	ID        string        `json:"id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

// NewSession creates an empty session with the given id, created at `at`.
func NewSession(id string, at time.Time) ChatSession {
	ms := at.UnixMilli()
	return ChatSession{
		ID:        id,
		Messages:  []ChatMessage{},
		CreatedAt: ms,
		UpdatedAt: ms,
	}
}

// WithMessage returns a copy of s with msg appended and UpdatedAt set to
// `at`. The receiver's message slice is not shared with the result.
func (s ChatSession) WithMessage(msg ChatMessage, at time.Time) ChatSession {
	next := s
	next.Messages = make([]ChatMessage, len(s.Messages), len(s.Messages)+1)
	copy(next.Messages, s.Messages)
	next.Messages = append(next.Messages, msg)

	next.UpdatedAt = at.UnixMilli()
	if next.UpdatedAt < next.CreatedAt {
		next.UpdatedAt = next.CreatedAt
	}
	return next
}

// Title derives a display title from the first user message.
func (s ChatSession) Title() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			if line := util.FirstLine(m.Content); line != "" {
				return util.TruncateRunes(line, titleMaxRunes)
			}
		}
	}
	return DefaultTitle
}

// LastMessage returns the most recent message, if any.
func (s ChatSession) LastMessage() (ChatMessage, bool) {
	if len(s.Messages) == 0 {
		return ChatMessage{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Created returns CreatedAt as a time.Time.
func (s ChatSession) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// Updated returns UpdatedAt as a time.Time.
func (s ChatSession) Updated() time.Time {
	return time.UnixMilli(s.UpdatedAt)
}

// Duration is the span between creation and the last update.
func (s ChatSession) Duration() time.Duration {
	return time.Duration(s.UpdatedAt-s.CreatedAt) * time.Millisecond
}
