// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/config"
	"github.com/jeranaias/divecoach/internal/kvstore"
	"github.com/jeranaias/divecoach/internal/logging"
	"github.com/jeranaias/divecoach/internal/metrics"
	"github.com/jeranaias/divecoach/internal/preset"
	"github.com/jeranaias/divecoach/internal/session"
	"github.com/jeranaias/divecoach/internal/stream"
	"github.com/jeranaias/divecoach/internal/theme"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	sessionID  string
	logLevel   string
}

// loadConfig reads the config file named by --config, or the default one,
// and applies --log-level.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

// =============================================================================
// APP
// =============================================================================

// app holds the stores and clients one command invocation works with.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	logFile *os.File

	kv       *kvstore.Store
	sessions *session.Store
	presets  *preset.Store
	themes   *theme.Store
	client   *coachapi.Client
}

// openOptions tunes openApp.
type openOptions struct {
	// LogToFile sends logs to the configured log file; used while the TUI
	// owns the terminal.
	LogToFile bool
	// LogOutput receives logs otherwise (default stderr).
	LogOutput io.Writer
	// Backend, when set, replaces the configured storage backend.
	Backend kvstore.Backend
}

// openApp wires config into the stores and the API client. Storage that
// cannot be opened is replaced by an unavailable in-memory backend, so
// the session keeps working and the TUI shows the persistence notice.
func openApp(cfg *config.Config, flags *globalFlags, opts openOptions) (*app, error) {
	a := &app{cfg: cfg}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	if opts.LogToFile {
		f, err := logging.OpenFile(cfg.LogFile())
		if err != nil {
			return nil, err
		}
		a.logFile = f
		out = f
	}
	a.logger = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})

	backend := opts.Backend
	if backend == nil {
		b, err := kvstore.OpenBackend(kvstore.Options{
			Backend:       cfg.Storage.Backend,
			Dir:           cfg.DataDir(),
			Quota:         cfg.Storage.QuotaBytes,
			RedisURL:      cfg.Storage.RedisURL,
			RedisPassword: cfg.Storage.RedisPassword,
			RedisDB:       cfg.Storage.RedisDB,
			RedisPrefix:   cfg.Storage.RedisPrefix,
			RedisTimeout:  cfg.API.Timeout(),
		})
		if err != nil {
			a.logger.Warn().Err(err).Str("backend", cfg.Storage.Backend).Msg("storage unavailable, changes will not be saved")
			mem := kvstore.NewMemoryBackend(0)
			mem.SetDisabled(true)
			b = mem
		}
		backend = b
	}
	a.kv = kvstore.New(backend, a.logger)

	a.sessions = session.Open(a.kv, session.Options{Logger: a.logger})
	if flags != nil && flags.sessionID != "" {
		a.sessions.Select(flags.sessionID)
	}
	a.presets = preset.NewStore(a.kv, a.logger)
	a.themes = theme.NewStore(a.kv, a.logger)
	if cfg.UI.Theme != "" {
		if m, err := theme.Parse(cfg.UI.Theme); err == nil && m != a.themes.Get() {
			_, _ = a.themes.Set(m)
		}
	}

	a.client = coachapi.NewClient(&coachapi.ClientConfig{
		BaseURL:          cfg.API.BaseURL,
		Timeout:          cfg.API.Timeout(),
		Model:            cfg.API.Model,
		Template:         cfg.API.Template,
		SimilarityMethod: cfg.API.SimilarityMethod,
		DeveloperMessage: cfg.API.DeveloperMessage,
		Logger:           a.logger,
	})
	return a, nil
}

// request is the chat request template built from config.
func (a *app) request() coachapi.ChatRequest {
	return coachapi.ChatRequest{
		Model:            a.cfg.API.Model,
		Template:         a.cfg.API.Template,
		SimilarityMethod: a.cfg.API.SimilarityMethod,
		DeveloperMessage: a.cfg.API.DeveloperMessage,
	}
}

// controller builds a stream controller over the session store. observer
// may be nil.
func (a *app) controller(observer stream.Observer) *stream.Controller {
	return stream.New(a.client, a.sessions, stream.Options{
		Request:  a.request(),
		Timeout:  a.cfg.API.StreamTimeout(),
		Observer: observer,
		Logger:   a.logger,
	})
}

// statsSource builds the named metrics source; an empty name uses the
// configured one.
func (a *app) statsSource(name string) (metrics.Source, error) {
	if name == "" {
		name = a.cfg.Stats.Source
	}
	return metrics.NewSource(strings.ToLower(name), metrics.Deps{
		Sessions: a.sessions.Sessions,
		Remote:   a.client,
		Location: time.Local,
		Logger:   a.logger,
	})
}

// close releases the storage backend and the log file.
func (a *app) close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close storage")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// persistenceWarning describes a storage problem worth telling the user
// about after a command, or "" if writes are durable.
func (a *app) persistenceWarning() string {
	if res := a.sessions.LastWrite(); !res.Durable() {
		return fmt.Sprintf("changes may not be saved (%s)", res.String())
	}
	if res := a.sessions.LoadResult(); res.Kind == kvstore.KindUnavailable {
		return "changes may not be saved (storage unavailable)"
	}
	return ""
}
