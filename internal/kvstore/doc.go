// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kvstore is the persistent key-value layer behind sessions,
// presets and the theme preference.
//
// A Backend is a plain synchronous string store (files, SQLite, Redis or
// memory). Store adds JSON encoding on top and never fails loudly: reads of
// corrupted values remove the key and report KindCorrupt, writes that hit a
// quota or a dead backend report KindWriteFailed or KindUnavailable. The
// in-memory state of callers stays authoritative either way.
//
// # Key Types
//
//   - Backend: storage driver interface
//   - Store: JSON adapter with corruption recovery
//   - Result, Kind: typed outcome of every operation
//
// # Usage
//
//	backend, err := kvstore.OpenBackend(kvstore.Options{Backend: "sqlite", Dir: dataDir})
//	store := kvstore.New(backend, logger)
//
//	var sessions []model.ChatSession
//	if res := store.Load("chat_sessions", kvstore.ShapeArray, &sessions); !res.OK() {
//	    sessions = nil
//	}
package kvstore
