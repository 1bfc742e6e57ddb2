// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"fmt"
	"path/filepath"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	// Dir holds file-backend values and the sqlite database.
	Dir string

	// Quota caps a single value (file, sqlite) or the whole store (memory).
	Quota int

	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	RedisTimeout  time.Duration
}

// OpenBackend constructs the backend named by opts.Backend.
func OpenBackend(opts Options) (Backend, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileBackend(filepath.Join(opts.Dir, "kv"), opts.Quota)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(opts.Dir, "divecoach.db"), opts.Quota)
	case BackendRedis:
		return NewRedis(RedisOptions{
			URL:      opts.RedisURL,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
			Timeout:  opts.RedisTimeout,
		})
	case BackendMemory:
		return NewMemoryBackend(opts.Quota), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
