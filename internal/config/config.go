// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for divecoach.
//
// Configuration is read from ~/.divecoach/config.toml when present, layered
// over built-in defaults, then overridden by DIVECOACH_* environment
// variables and validated.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/divecoach/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete divecoach configuration.
type Config struct {
	Version string `toml:"version"`

	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Stats   StatsConfig   `toml:"stats"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
}

// APIConfig configures the chat backend client.
type APIConfig struct {
	// BaseURL of the chat backend (default http://localhost:8000)
	BaseURL string `toml:"base_url"`
	// Model requested from the backend
	Model string `toml:"model"`
	// Template selects the coaching tone: default, beginner, advanced
	Template string `toml:"template"`
	// SimilarityMethod used for retrieval: cosine, euclidean
	SimilarityMethod string `toml:"similarity_method"`
	// DeveloperMessage is sent as the system instruction
	DeveloperMessage string `toml:"developer_message"`
	// TimeoutSecs bounds non-streaming requests (stats, health)
	TimeoutSecs int `toml:"timeout_secs"`
	// StreamTimeoutSecs bounds a whole streamed reply; 0 disables the limit
	StreamTimeoutSecs int `toml:"stream_timeout_secs"`
}

// StorageConfig selects the persistent key-value backend.
type StorageConfig struct {
	// Backend is one of: file, sqlite, redis, memory
	Backend string `toml:"backend"`
	// Dir holds local data (default ~/.divecoach)
	Dir string `toml:"dir"`
	// QuotaBytes caps a single stored value; 0 means unlimited
	QuotaBytes int `toml:"quota_bytes"`

	RedisURL      string `toml:"redis_url"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// StatsConfig configures the metrics panel.
type StatsConfig struct {
	// Source is one of: merged, remote, local, mock
	Source string `toml:"source"`
	// RefreshIntervalSecs between automatic polls; 0 disables polling
	RefreshIntervalSecs int `toml:"refresh_interval_secs"`
	// MinRefreshSecs throttles manual refreshes
	MinRefreshSecs int `toml:"min_refresh_secs"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// Theme overrides the stored preference when set
	Theme string `toml:"theme"`
	// WordWrap column for rendered markdown
	WordWrap int `toml:"word_wrap"`
	// Markdown enables glamour rendering of replies
	Markdown bool `toml:"markdown"`
	// AltScreen runs the TUI in the alternate screen buffer
	AltScreen bool `toml:"alt_screen"`
	// PresetsFile is watched and imported into the preset store when set
	PresetsFile string `toml:"presets_file"`
	// HistoryFile stores REPL input history (default <dir>/history)
	HistoryFile string `toml:"history_file"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level: trace, debug, info, warn, error
	Level string `toml:"level"`
	// Format: console or json
	Format string `toml:"format"`
	// File receives logs while the TUI owns the terminal (default <dir>/divecoach.log)
	File string `toml:"file"`
}

// ServerConfig configures the bundled mock backend.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	ChunkDelayMs int    `toml:"chunk_delay_ms"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default values.
const (
	DefaultBaseURL          = "http://localhost:8000"
	DefaultModel            = "gpt-4.1-mini"
	DefaultTemplate         = "default"
	DefaultSimilarity       = "cosine"
	DefaultDeveloperMessage = "You are a helpful AI assistant."
	DefaultStatsSource      = "merged"
	DefaultRefreshSecs      = 30
	DefaultServerAddr       = ":8000"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:          DefaultBaseURL,
			Model:            DefaultModel,
			Template:         DefaultTemplate,
			SimilarityMethod: DefaultSimilarity,
			DeveloperMessage: DefaultDeveloperMessage,
			TimeoutSecs:      10,
		},
		Storage: StorageConfig{
			Backend:     "file",
			RedisURL:    "localhost:6379",
			RedisPrefix: "divecoach:",
		},
		Stats: StatsConfig{
			Source:              DefaultStatsSource,
			RefreshIntervalSecs: DefaultRefreshSecs,
			MinRefreshSecs:      2,
		},
		UI: UIConfig{
			WordWrap:  80,
			Markdown:  true,
			AltScreen: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			ChunkDelayMs: 30,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the divecoach home directory. DIVECOACH_HOME overrides
// the default ~/.divecoach.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DIVECOACH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".divecoach"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the directory used for local storage and logs.
func (c *Config) DataDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	dir, err := ConfigDir()
	if err != nil {
		return "."
	}
	return dir
}

// LogFile returns the log file path used while the TUI is running.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir(), "divecoach.log")
}

// HistoryFile returns the REPL history path.
func (c *Config) HistoryFile() string {
	if c.UI.HistoryFile != "" {
		return c.UI.HistoryFile
	}
	return filepath.Join(c.DataDir(), "history")
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default config file. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config at path over the defaults. A missing file
// yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path atomically with owner-only permissions.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# divecoach configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DIVECOACH_* variables. NEXT_PUBLIC_API_URL is
// honoured for parity with the web client; DIVECOACH_API_URL wins.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NEXT_PUBLIC_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DIVECOACH_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DIVECOACH_MODEL"); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv("DIVECOACH_TEMPLATE"); v != "" {
		c.API.Template = v
	}
	if v := os.Getenv("DIVECOACH_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("DIVECOACH_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("DIVECOACH_STATS_SOURCE"); v != "" {
		c.Stats.Source = v
	}
	if v := os.Getenv("DIVECOACH_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("DIVECOACH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DIVECOACH_STREAM_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.StreamTimeoutSecs = n
		}
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Model == "" {
		c.API.Model = d.API.Model
	}
	if c.API.Template == "" {
		c.API.Template = d.API.Template
	}
	if c.API.SimilarityMethod == "" {
		c.API.SimilarityMethod = d.API.SimilarityMethod
	}
	if c.API.DeveloperMessage == "" {
		c.API.DeveloperMessage = d.API.DeveloperMessage
	}
	if c.API.TimeoutSecs <= 0 {
		c.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Stats.Source == "" {
		c.Stats.Source = d.Stats.Source
	}
	if c.Stats.MinRefreshSecs <= 0 {
		c.Stats.MinRefreshSecs = d.Stats.MinRefreshSecs
	}
	if c.UI.WordWrap <= 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validTemplates   = []string{"default", "beginner", "advanced"}
	validSimilarity  = []string{"cosine", "euclidean"}
	validBackends    = []string{"file", "sqlite", "redis", "memory"}
	validStatsSource = []string{"merged", "remote", "local", "mock"}
	validThemes      = []string{"light", "hacker", "designer"}
	validLogLevels   = []string{"trace", "debug", "info", "warn", "error"}
	validLogFormats  = []string{"console", "json"}
)

// Validate checks enumerations and ranges and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL %q, must be http(s)://host[:port]", c.API.BaseURL),
		})
	}
	errs = checkOneOf(errs, "api.template", c.API.Template, validTemplates)
	errs = checkOneOf(errs, "api.similarity_method", c.API.SimilarityMethod, validSimilarity)
	if c.API.StreamTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.stream_timeout_secs", Message: "must be >= 0"})
	}

	errs = checkOneOf(errs, "storage.backend", c.Storage.Backend, validBackends)
	if c.Storage.QuotaBytes < 0 {
		errs = append(errs, ValidationError{Field: "storage.quota_bytes", Message: "must be >= 0"})
	}

	errs = checkOneOf(errs, "stats.source", c.Stats.Source, validStatsSource)
	if c.Stats.RefreshIntervalSecs < 0 {
		errs = append(errs, ValidationError{Field: "stats.refresh_interval_secs", Message: "must be >= 0"})
	}

	if c.UI.Theme != "" {
		errs = checkOneOf(errs, "ui.theme", c.UI.Theme, validThemes)
	}
	errs = checkOneOf(errs, "log.level", c.Log.Level, validLogLevels)
	errs = checkOneOf(errs, "log.format", c.Log.Format, validLogFormats)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkOneOf(errs ValidateErrors, field, value string, allowed []string) ValidateErrors {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return errs
		}
	}
	return append(errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q, must be one of: %s", value, strings.Join(allowed, ", ")),
	})
}

// =============================================================================
// DURATIONS
// =============================================================================

// Timeout returns the non-streaming request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// StreamTimeout returns the per-reply limit, zero when unlimited.
func (a APIConfig) StreamTimeout() time.Duration {
	return time.Duration(a.StreamTimeoutSecs) * time.Second
}

// RefreshInterval returns the stats polling interval.
func (s StatsConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSecs) * time.Second
}

// MinRefresh returns the minimum spacing of manual refreshes.
func (s StatsConfig) MinRefresh() time.Duration {
	return time.Duration(s.MinRefreshSecs) * time.Second
}

// ChunkDelay returns the mock server's delay between streamed words.
func (s ServerConfig) ChunkDelay() time.Duration {
	return time.Duration(s.ChunkDelayMs) * time.Millisecond
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide config, loading it on first use. Load
// errors fall back to the defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	// Mark loaded only after the value is visible to readers.
	globalConfigOnce.Do(func() {})
}

// ResetGlobalForTesting clears the process-wide config.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
