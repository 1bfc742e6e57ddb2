// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable ApplyEnvOverrides reads for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NEXT_PUBLIC_API_URL", "DIVECOACH_API_URL", "DIVECOACH_MODEL",
		"DIVECOACH_TEMPLATE", "DIVECOACH_STORAGE_BACKEND", "DIVECOACH_REDIS_URL",
		"DIVECOACH_STATS_SOURCE", "DIVECOACH_THEME", "DIVECOACH_LOG_LEVEL",
		"DIVECOACH_STREAM_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Stats.RefreshInterval())
	assert.Zero(t, cfg.API.StreamTimeout())
}

func TestLoadFromPath_Missing(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestLoadFromPath_PartialFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://coach.local:9000/"
template = "beginner"

[storage]
backend = "sqlite"
`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://coach.local:9000", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "beginner", cfg.API.Template)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, DefaultModel, cfg.API.Model, "unset keys keep defaults")
	assert.Equal(t, 80, cfg.UI.WordWrap)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
template = "expert"
base_url = "ftp://nowhere"

[storage]
backend = "floppy"
`), 0o600))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	assert.True(t, fields["api.template"])
	assert.True(t, fields["api.base_url"])
	assert.True(t, fields["storage.backend"])
}

func TestLoadFromPath_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url = "), 0o600))
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://next.example:8000")
	t.Setenv("DIVECOACH_STORAGE_BACKEND", "memory")
	t.Setenv("DIVECOACH_STREAM_TIMEOUT", "45")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://next.example:8000", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 45*time.Second, cfg.API.StreamTimeout())

	t.Setenv("DIVECOACH_API_URL", "http://explicit:1234")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://explicit:1234", cfg.API.BaseURL, "DIVECOACH_API_URL wins")
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.API.Template = "advanced"
	cfg.UI.Theme = "hacker"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "advanced", loaded.API.Template)
	assert.Equal(t, "hacker", loaded.UI.Theme)
}

func TestDataDir(t *testing.T) {
	t.Setenv("DIVECOACH_HOME", "/tmp/dc-home")
	cfg := Default()
	assert.Equal(t, "/tmp/dc-home", cfg.DataDir())
	assert.Equal(t, filepath.Join("/tmp/dc-home", "divecoach.log"), cfg.LogFile())

	cfg.Storage.Dir = "/srv/dc"
	assert.Equal(t, "/srv/dc", cfg.DataDir())
}

// TestConfig_ConcurrentAccess checks Global and SetGlobal under -race.
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("DIVECOACH_HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
