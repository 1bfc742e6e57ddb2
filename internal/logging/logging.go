// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog loggers used across divecoach.
//
// Components receive a zerolog.Logger by injection; nothing logs through a
// package global. Tests pass zerolog.Nop().
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options configures New.
type Options struct {
	// Level: trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Format: console or json.
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// New creates a logger from opts.
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !isTerminal(out)}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// =============================================================================
// CONTEXT FIELDS
// =============================================================================

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxSessionID ctxKey = "session_id"
)

// WithRequestID stores a request id for With.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// WithSessionID stores a session id for With.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSessionID, id)
}

// With returns base enriched with the ids carried by ctx.
func With(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	l := base.With()
	if v, ok := ctx.Value(ctxRequestID).(string); ok && v != "" {
		l = l.Str("request_id", v)
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok && v != "" {
		l = l.Str("session_id", v)
	}
	return l.Logger()
}

// TraceDuration logs start and finish of name at trace level.
//
//	defer logging.TraceDuration(logger, "controller.Send")()
func TraceDuration(logger zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
