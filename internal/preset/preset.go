// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package preset

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/divecoach/internal/kvstore"
)

// PresetsKey is the storage key for user presets. An absent key means the
// built-in defaults.
const PresetsKey = "custom_presets"

// =============================================================================
// TYPES
// =============================================================================

// Prompt is a single ready-made question.
type Prompt struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category" yaml:"category"`
	Emoji    string `json:"emoji" yaml:"emoji"`
}

// Category groups prompts under a heading.
type Category struct {
	Name    string   `json:"name" yaml:"name"`
	Emoji   string   `json:"emoji" yaml:"emoji"`
	Prompts []Prompt `json:"prompts" yaml:"prompts"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultsOnce sync.Once
	defaults     []Category
)

// Defaults returns a fresh copy of the built-in presets.
func Defaults() []Category {
	defaultsOnce.Do(func() {
		if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
			panic(fmt.Sprintf("preset: embedded defaults: %v", err))
		}
	})
	return clone(defaults)
}

func clone(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		out[i] = c
		out[i].Prompts = append([]Prompt(nil), c.Prompts...)
	}
	return out
}

// =============================================================================
// STORE
// =============================================================================

// Store persists the user's presets.
type Store struct {
	kv     *kvstore.Store
	logger zerolog.Logger

	mu   sync.Mutex
	cats []Category
	// custom is true when cats came from storage rather than defaults.
	custom bool
}

// NewStore creates a store over kv and loads it.
func NewStore(kv *kvstore.Store, logger zerolog.Logger) *Store {
	s := &Store{kv: kv, logger: logger.With().Str("component", "preset").Logger()}
	s.Load()
	return s
}

// Load re-reads presets from storage. Absent or unreadable values fall
// back to the defaults; unreadable values are also purged.
func (s *Store) Load() []Category {
	var stored []Category
	res := s.kv.Load(PresetsKey, kvstore.ShapeArray, &stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.OK() {
		s.cats, s.custom = stored, true
	} else {
		if res.Kind == kvstore.KindCorrupt {
			s.logger.Warn().Err(res.Err).Msg("stored presets unreadable, using defaults")
		}
		s.cats, s.custom = Defaults(), false
	}
	return clone(s.cats)
}

// All returns the current categories.
func (s *Store) All() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.cats)
}

// IsCustom reports whether the presets came from storage.
func (s *Store) IsCustom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.custom
}

// Save replaces the presets and writes them through.
func (s *Store) Save(cats []Category) kvstore.Result {
	s.mu.Lock()
	s.cats, s.custom = clone(cats), true
	s.mu.Unlock()
	return s.kv.Save(PresetsKey, cats)
}

// ResetToDefault restores the built-in presets and removes the stored key.
func (s *Store) ResetToDefault() kvstore.Result {
	s.mu.Lock()
	s.cats, s.custom = Defaults(), false
	s.mu.Unlock()
	s.logger.Info().Msg("presets reset to defaults")
	return s.kv.Remove(PresetsKey)
}

// Prompts returns every prompt of every category in order.
func (s *Store) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return flatten(s.cats)
}

// Find returns the prompt with the given id.
func (s *Store) Find(id string) (Prompt, bool) {
	for _, p := range s.Prompts() {
		if p.ID == id {
			return p, true
		}
	}
	return Prompt{}, false
}

// Random picks one prompt. pick returns an index in [0, n); nil means a
// uniform random choice.
func (s *Store) Random(pick func(n int) int) (Prompt, bool) {
	all := s.Prompts()
	if len(all) == 0 {
		return Prompt{}, false
	}
	if pick == nil {
		pick = rand.IntN
	}
	return all[pick(len(all))], true
}

func flatten(cats []Category) []Prompt {
	var out []Prompt
	for _, c := range cats {
		out = append(out, c.Prompts...)
	}
	return out
}
