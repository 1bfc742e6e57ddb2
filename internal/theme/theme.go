// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme persists the user's colour theme choice.
package theme

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/kvstore"
)

// ThemeKey is the storage key. The value is the bare mode name, not JSON.
const ThemeKey = "ai-chat-theme"

// Mode is a colour theme name.
type Mode string

const (
	Light    Mode = "light"
	Hacker   Mode = "hacker"
	Designer Mode = "designer"
)

// Default is used until the user picks a theme.
const Default = Light

// Modes lists every theme in cycling order.
var Modes = []Mode{Light, Hacker, Designer}

// Valid reports whether m is a known theme.
func (m Mode) Valid() bool {
	for _, v := range Modes {
		if v == m {
			return true
		}
	}
	return false
}

func (m Mode) String() string { return string(m) }

// Parse converts a user supplied name, case-insensitively.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown theme %q (want light, hacker or designer)", s)
	}
	return m, nil
}

// Next returns the theme after m in cycling order.
func (m Mode) Next() Mode {
	for i, v := range Modes {
		if v == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Default
}

// Store holds the current theme.
type Store struct {
	kv     *kvstore.Store
	logger zerolog.Logger

	mu   sync.Mutex
	mode Mode
}

// NewStore loads the stored theme, ignoring unknown values.
func NewStore(kv *kvstore.Store, logger zerolog.Logger) *Store {
	s := &Store{kv: kv, logger: logger.With().Str("component", "theme").Logger(), mode: Default}
	raw, res := kv.LoadRaw(ThemeKey)
	if res.OK() {
		if m := Mode(raw); m.Valid() {
			s.mode = m
		} else {
			s.logger.Debug().Str("stored", raw).Msg("ignoring unknown stored theme")
		}
	}
	return s
}

// Get returns the current theme.
func (s *Store) Get() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Set switches to m and persists it. Unknown modes are rejected.
func (s *Store) Set(m Mode) (kvstore.Result, error) {
	if !m.Valid() {
		return kvstore.Result{}, fmt.Errorf("unknown theme %q", m)
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	return s.kv.SaveRaw(ThemeKey, string(m)), nil
}

// Cycle advances to the next theme and returns it.
func (s *Store) Cycle() Mode {
	next := s.Get().Next()
	_, _ = s.Set(next)
	return next
}
