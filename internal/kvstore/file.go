// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kvstore

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/divecoach/internal/util"
)

// FileBackend stores one file per key under a directory. Writes are atomic
// so a crash mid-save leaves the previous value readable.
type FileBackend struct {
	dir     string
	maxSize int

	// mu serializes writers; readers rely on atomic renames.
	mu sync.Mutex
}

// NewFileBackend creates the directory if needed. A positive maxSize caps
// the size of a single value in bytes.
func NewFileBackend(dir string, maxSize int) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrUnavailable, dir, err)
	}
	return &FileBackend{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the storage directory.
func (f *FileBackend) Dir() string { return f.dir }

// Get reads the file for key.
func (f *FileBackend) Get(key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(data), nil
}

// Set atomically replaces the file for key.
func (f *FileBackend) Set(key, value string) error {
	if f.maxSize > 0 && len(value) > f.maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrQuotaExceeded, len(value), f.maxSize)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := util.AtomicWriteFile(f.path(key), []byte(value), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove deletes the file for key.
func (f *FileBackend) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op.
func (f *FileBackend) Close() error { return nil }

// path escapes key so arbitrary keys map to a single file name inside dir.
// Dots are escaped too, so "." and ".." cannot name the directory or its
// parent. The empty key maps to "%", which no escaped key produces.
func (f *FileBackend) path(key string) string {
	if key == "" {
		return filepath.Join(f.dir, "%")
	}
	return filepath.Join(f.dir, strings.ReplaceAll(url.PathEscape(key), ".", "%2E"))
}
