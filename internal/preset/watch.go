// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package preset

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// ChangeFunc receives the result of each re-import.
type ChangeFunc func(cats []Category, err error)

// Watch re-imports path whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are still seen.
// onChange runs on the watcher goroutine.
func (s *Store) Watch(ctx context.Context, path string, onChange ChangeFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return err
	}

	go s.watchLoop(ctx, w, abs, onChange)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, onChange ChangeFunc) {
	defer w.Close()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Str("path", path).Msg("preset watcher error")

		case <-timer.C:
			cats, err := s.Import(path)
			if err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("preset file changed but could not be imported")
			}
			if onChange != nil {
				onChange(cats, err)
			}
		}
	}
}
