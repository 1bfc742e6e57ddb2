// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"errors"
	"fmt"
	"sync"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a synchronous string key-value store.
//
// Implementations must be safe for concurrent use. Get returns ErrNotFound
// for absent keys; Remove of an absent key is not an error.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Sentinel errors returned by backends.
var (
	ErrNotFound      = errors.New("kvstore: key not found")
	ErrQuotaExceeded = errors.New("kvstore: storage quota exceeded")
	ErrUnavailable   = errors.New("kvstore: storage unavailable")
)

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps values in a map. It is the default for tests and for
// --storage=memory sessions that should leave nothing behind.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string]string
	quota    int
	disabled bool
}

// NewMemoryBackend creates an empty in-memory backend. A positive quota
// caps the total bytes of keys plus values, like a browser origin quota.
func NewMemoryBackend(quota int) *MemoryBackend {
	return &MemoryBackend{
		data:  make(map[string]string),
		quota: quota,
	}
}

// SetDisabled makes every operation fail with ErrUnavailable while true.
func (m *MemoryBackend) SetDisabled(disabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = disabled
}

// Get returns the value stored under key.
func (m *MemoryBackend) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.disabled {
		return "", ErrUnavailable
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key, failing with ErrQuotaExceeded when the write
// would exceed the quota. A failed write leaves the previous value intact.
func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrUnavailable
	}
	if m.quota > 0 {
		used := m.usedLocked()
		if old, ok := m.data[key]; ok {
			used -= len(key) + len(old)
		}
		if used+len(key)+len(value) > m.quota {
			return fmt.Errorf("%w: %d bytes requested, quota %d", ErrQuotaExceeded, len(key)+len(value), m.quota)
		}
	}
	m.data[key] = value
	return nil
}

// Remove deletes key.
func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

// Close is a no-op.
func (m *MemoryBackend) Close() error { return nil }

// Len returns the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryBackend) usedLocked() int {
	n := 0
	for k, v := range m.data {
		n += len(k) + len(v)
	}
	return n
}
