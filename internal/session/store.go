// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/kvstore"
	"github.com/jeranaias/divecoach/internal/model"
)

// SessionsKey is the storage key holding the JSON array of sessions.
const SessionsKey = "chat_sessions"

// Options configures a Store. Zero values pick production defaults.
type Options struct {
	// Clock returns the current time (default time.Now).
	Clock func() time.Time
	// NewID returns a fresh session id (default random UUIDv4).
	NewID func() string
	// Logger receives persistence warnings.
	Logger zerolog.Logger
}

// Store owns the session collection.
//
// The in-memory collection is authoritative. It is read from storage once,
// in Open, and written back after every mutation. Write failures are logged
// and reported through LastWrite; they never fail the mutation.
type Store struct {
	kv     *kvstore.Store
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger

	mu        sync.Mutex
	sessions  []model.ChatSession
	selected  string
	loaded    kvstore.Result
	lastWrite kvstore.Result

	subMu  sync.Mutex
	subs   map[int]func([]model.ChatSession)
	nextID int
}

// Open loads the collection from kv. A missing value, or one that is not a
// JSON array, yields an empty collection. Inside an array each record is
// decoded on its own and only the records that fail are dropped.
func Open(kv *kvstore.Store, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}

	s := &Store{
		kv:        kv,
		now:       opts.Clock,
		newID:     opts.NewID,
		logger:    opts.Logger.With().Str("component", "session").Logger(),
		sessions:  []model.ChatSession{},
		lastWrite: kvstore.Result{Kind: kvstore.KindOK, Key: SessionsKey},
		subs:      make(map[int]func([]model.ChatSession)),
	}

	var records []json.RawMessage
	s.loaded = kv.Load(SessionsKey, kvstore.ShapeArray, &records)
	if s.loaded.OK() {
		loaded, undecodable := decodeSessions(records)
		clean, dropped := sanitize(loaded)
		if dropped += undecodable; dropped > 0 {
			s.logger.Warn().Int("dropped", dropped).Int("undecodable", undecodable).
				Msg("ignored unreadable sessions or sessions with missing or duplicate ids")
		}
		s.sessions = clean
	}
	s.logger.Debug().Str("result", s.loaded.Kind.String()).Int("sessions", len(s.sessions)).Msg("sessions loaded")
	return s
}

// =============================================================================
// QUERIES
// =============================================================================

// Sessions returns the collection, newest first. The returned slice is a
// snapshot; later mutations do not affect it.
func (s *Store) Sessions() []model.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ResolveCurrent looks id up without side effects. An empty id, or one not
// in the collection, yields nil.
func (s *Store) ResolveCurrent(id string) *model.ChatSession {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := indexOf(s.sessions, id); idx >= 0 {
		found := cloneSession(s.sessions[idx])
		return &found
	}
	return nil
}

// Select records the externally chosen session id (a --session flag or a
// sidebar pick). The id is opaque and is not required to exist yet.
func (s *Store) Select(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

// SelectedID returns the id recorded by Select.
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Current resolves the selected id.
func (s *Store) Current() *model.ChatSession {
	return s.ResolveCurrent(s.SelectedID())
}

// LoadResult reports how the initial load went.
func (s *Store) LoadResult() kvstore.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// LastWrite reports the outcome of the most recent flush.
func (s *Store) LastWrite() kvstore.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWrite
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateSession prepends a new empty session and returns it.
func (s *Store) CreateSession() model.ChatSession {
	s.mu.Lock()
	created := model.NewSession(s.newID(), s.now())
	s.sessions = prepend(s.sessions, created)
	snap := s.flushLocked()
	s.mu.Unlock()

	s.logger.Debug().Str("session_id", created.ID).Msg("session created")
	s.notify(snap)
	return created
}

// AppendMessage appends msg to the session targetID, falling back to the
// selected id when targetID is empty. Unknown ids are created on the fly
// with that exact id; with no id at all a fresh session is created. The id
// of the session that received the message is returned.
func (s *Store) AppendMessage(msg model.ChatMessage, targetID string) string {
	s.mu.Lock()
	if targetID == "" {
		targetID = s.selected
	}
	next, id, outcome := appendMessage(s.sessions, msg, targetID, s.now(), s.newID)
	s.sessions = next
	snap := s.flushLocked()
	s.mu.Unlock()

	switch outcome {
	case createdWithGivenID:
		s.logger.Debug().Str("session_id", id).Msg("session created for unknown id")
	case createdWithFreshID:
		s.logger.Warn().Str("session_id", id).Msg("message appended without a session id, created one")
	}
	s.notify(snap)
	return id
}

// ClearHistory drops every session and removes the stored key.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	s.sessions = []model.ChatSession{}
	s.lastWrite = s.kv.Remove(SessionsKey)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Msg("chat history cleared")
	s.notify(snap)
}

// GetOrCreateSession returns current when non-nil, otherwise a new session.
func (s *Store) GetOrCreateSession(current *model.ChatSession) model.ChatSession {
	if current != nil {
		return *current
	}
	return s.CreateSession()
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive the collection after every mutation.
// fn runs on the mutating goroutine, outside the store lock. The returned
// function unregisters it.
func (s *Store) Subscribe(fn func([]model.ChatSession)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap []model.ChatSession) {
	s.subMu.Lock()
	fns := make([]func([]model.ChatSession), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// flushLocked writes the whole collection and returns a snapshot for
// subscribers. Caller holds s.mu.
func (s *Store) flushLocked() []model.ChatSession {
	s.lastWrite = s.kv.Save(SessionsKey, s.sessions)
	if !s.lastWrite.OK() {
		s.logger.Warn().Err(s.lastWrite.Err).Str("result", s.lastWrite.Kind.String()).
			Int("sessions", len(s.sessions)).Msg("sessions not persisted, keeping in-memory state")
	}
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []model.ChatSession {
	out := make([]model.ChatSession, len(s.sessions))
	for i := range s.sessions {
		out[i] = cloneSession(s.sessions[i])
	}
	return out
}
