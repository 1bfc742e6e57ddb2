// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/divecoach/internal/model"
)

// =============================================================================
// REDUCERS
// =============================================================================
//
// Every function here is pure: it returns a new collection and never writes
// through the slice it was given. The Store swaps the result in under its
// lock, so a caller holding an older snapshot never sees it change.

// appendOutcome reports which reconciliation branch appendMessage took.
type appendOutcome int

const (
	appendedExisting appendOutcome = iota
	createdWithGivenID
	createdWithFreshID
)

// prepend returns a new collection with s in front of prev.
func prepend(prev []model.ChatSession, s model.ChatSession) []model.ChatSession {
	next := make([]model.ChatSession, 0, len(prev)+1)
	next = append(next, s)
	return append(next, prev...)
}

// indexOf returns the position of id in sessions or -1.
func indexOf(sessions []model.ChatSession, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// appendMessage resolves target and appends msg:
//
//  1. empty target: a new session with a fresh id holding [msg]
//  2. unknown target: a new session with exactly that id holding [msg]
//  3. known target: msg appended, UpdatedAt bumped, order unchanged
//
// New sessions are prepended. The id the message landed in is returned.
func appendMessage(prev []model.ChatSession, msg model.ChatMessage, target string, now time.Time, newID func() string) ([]model.ChatSession, string, appendOutcome) {
	if target == "" {
		s := model.NewSession(newID(), now).WithMessage(msg, now)
		return prepend(prev, s), s.ID, createdWithFreshID
	}

	idx := indexOf(prev, target)
	if idx < 0 {
		s := model.NewSession(target, now).WithMessage(msg, now)
		return prepend(prev, s), s.ID, createdWithGivenID
	}

	next := make([]model.ChatSession, len(prev))
	copy(next, prev)
	next[idx] = prev[idx].WithMessage(msg, now)
	return next, target, appendedExisting
}

// sanitize drops records without an id, keeps the first of any duplicate
// ids and replaces nil message slices, restoring the collection invariants
// on data written by other tools.
func sanitize(loaded []model.ChatSession) ([]model.ChatSession, int) {
	seen := make(map[string]bool, len(loaded))
	out := make([]model.ChatSession, 0, len(loaded))
	dropped := 0
	for _, s := range loaded {
		if s.ID == "" || seen[s.ID] {
			dropped++
			continue
		}
		seen[s.ID] = true
		if s.Messages == nil {
			s.Messages = []model.ChatMessage{}
		}
		if s.UpdatedAt < s.CreatedAt {
			s.UpdatedAt = s.CreatedAt
		}
		out = append(out, s)
	}
	return out, dropped
}

// decodeSessions decodes each record on its own and returns the ones that
// parse along with the number that did not.
func decodeSessions(records []json.RawMessage) ([]model.ChatSession, int) {
	out := make([]model.ChatSession, 0, len(records))
	failed := 0
	for _, raw := range records {
		var s model.ChatSession
		if err := json.Unmarshal(raw, &s); err != nil {
			failed++
			continue
		}
		out = append(out, s)
	}
	return out, failed
}

// cloneSession copies s including its message slice.
func cloneSession(s model.ChatSession) model.ChatSession {
	if s.Messages != nil {
		msgs := make([]model.ChatMessage, len(s.Messages))
		copy(msgs, s.Messages)
		s.Messages = msgs
	}
	return s
}
