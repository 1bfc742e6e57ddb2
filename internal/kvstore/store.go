// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

// =============================================================================
// RESULT TYPE
// =============================================================================

// Kind classifies the outcome of a store operation.
type Kind int

const (
	KindOK Kind = iota
	KindAbsent
	KindCorrupt
	KindWriteFailed
	KindUnavailable
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindAbsent:
		return "absent"
	case KindCorrupt:
		return "corrupt"
	case KindWriteFailed:
		return "write_failed"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result reports what happened to a single operation. It is returned
// instead of an error because store failures are never fatal; callers that
// care (a "changes may not be saved" notice) inspect it, others ignore it.
type Result struct {
	Kind Kind
	Key  string
	Err  error
}

// OK reports whether the operation fully succeeded.
func (r Result) OK() bool { return r.Kind == KindOK }

// Durable reports whether a write reached the backend. Loads of absent or
// corrupt keys are not write failures and count as durable.
func (r Result) Durable() bool {
	return r.Kind != KindWriteFailed && r.Kind != KindUnavailable
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %v", r.Kind, r.Key, r.Err)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Key)
}

// Shape is the minimal structural check applied after parsing.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeArray
	ShapeObject
)

// =============================================================================
// STORE
// =============================================================================

// Store wraps a Backend with JSON encoding and corruption recovery.
//
// No method panics or returns an error: failures are logged and reported
// through Result.
type Store struct {
	backend Backend
	logger  zerolog.Logger
}

// New creates a Store over backend.
func New(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With().Str("component", "kvstore").Logger(),
	}
}

// NewMemory returns a Store over a fresh unlimited MemoryBackend.
func NewMemory() *Store {
	return New(NewMemoryBackend(0), zerolog.Nop())
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Load decodes the JSON stored under key into dst, which must be a non-nil
// pointer. dst is left untouched unless the result is KindOK.
//
// A value that fails to parse, or parses to the wrong shape, is removed
// from the backend so the next load starts clean.
func (s *Store) Load(key string, shape Shape, dst any) Result {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return Result{Kind: KindUnavailable, Key: key, Err: errors.New("kvstore: dst must be a non-nil pointer")}
	}

	raw, res := s.LoadRaw(key)
	if !res.OK() {
		return res
	}

	if err := checkShape([]byte(raw), shape); err != nil {
		return s.purge(key, err)
	}

	tmp := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal([]byte(raw), tmp.Interface()); err != nil {
		return s.purge(key, err)
	}
	rv.Elem().Set(tmp.Elem())
	return Result{Kind: KindOK, Key: key}
}

// LoadRaw returns the string stored under key without decoding it.
func (s *Store) LoadRaw(key string) (string, Result) {
	raw, err := s.backend.Get(key)
	switch {
	case err == nil:
		return raw, Result{Kind: KindOK, Key: key}
	case errors.Is(err, ErrNotFound):
		return "", Result{Kind: KindAbsent, Key: key}
	default:
		s.logger.Warn().Err(err).Str("key", key).Msg("storage read failed, treating as absent")
		return "", Result{Kind: KindUnavailable, Key: key, Err: err}
	}
}

// Save encodes v as JSON and writes it under key.
func (s *Store) Save(key string, v any) Result {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("value not serializable")
		return Result{Kind: KindWriteFailed, Key: key, Err: err}
	}
	return s.SaveRaw(key, string(data))
}

// SaveRaw writes value under key as-is.
func (s *Store) SaveRaw(key, value string) Result {
	if err := s.backend.Set(key, value); err != nil {
		kind := KindWriteFailed
		if errors.Is(err, ErrUnavailable) {
			kind = KindUnavailable
		}
		s.logger.Warn().Err(err).Str("key", key).Int("bytes", len(value)).
			Msg("storage write failed, changes may not be saved")
		return Result{Kind: kind, Key: key, Err: err}
	}
	return Result{Kind: KindOK, Key: key}
}

// Remove deletes key. Removing an absent key succeeds.
func (s *Store) Remove(key string) Result {
	if err := s.backend.Remove(key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("storage remove failed")
		return Result{Kind: KindWriteFailed, Key: key, Err: err}
	}
	return Result{Kind: KindOK, Key: key}
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) purge(key string, cause error) Result {
	s.logger.Warn().Err(cause).Str("key", key).Msg("corrupted value removed")
	if err := s.backend.Remove(key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to remove corrupted value")
	}
	return Result{Kind: KindCorrupt, Key: key, Err: cause}
}

func checkShape(raw []byte, shape Shape) error {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return errors.New("invalid JSON")
	}
	switch shape {
	case ShapeArray:
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return errors.New("expected a JSON array")
		}
	case ShapeObject:
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return errors.New("expected a JSON object")
		}
	}
	return nil
}
