// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package preset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/divecoach/internal/kvstore"
)

func TestDefaults(t *testing.T) {
	cats := Defaults()
	require.Len(t, cats, 6)

	ids := map[string]bool{}
	for _, c := range cats {
		assert.NotEmpty(t, c.Emoji)
		assert.Len(t, c.Prompts, 3, c.Name)
		for _, p := range c.Prompts {
			assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
			ids[p.ID] = true
			assert.Equal(t, c.Emoji, p.Emoji)
		}
	}

	assert.Equal(t, "Learning / Skill Growth", cats[0].Name)
	assert.Equal(t, "learn-1", cats[0].Prompts[0].ID)
	assert.Equal(t, "Learning", cats[0].Prompts[0].Category)
	assert.Equal(t, "tech-3", cats[5].Prompts[2].ID)
}

func TestDefaults_ReturnsCopy(t *testing.T) {
	a := Defaults()
	a[0].Prompts[0].Text = "changed"
	assert.NotEqual(t, "changed", Defaults()[0].Prompts[0].Text)
}

func TestStore_AbsentUsesDefaults(t *testing.T) {
	s := NewStore(kvstore.NewMemory(), zerolog.Nop())
	assert.False(t, s.IsCustom())
	assert.Equal(t, Defaults(), s.All())
}

func TestStore_CorruptFallsBackAndPurges(t *testing.T) {
	kv := kvstore.NewMemory()
	kv.SaveRaw(PresetsKey, `{"not":"an array"}`)

	s := NewStore(kv, zerolog.Nop())
	assert.False(t, s.IsCustom())
	assert.Len(t, s.All(), 6)

	_, res := kv.LoadRaw(PresetsKey)
	assert.Equal(t, kvstore.KindAbsent, res.Kind)
}

func TestStore_SaveAndReset(t *testing.T) {
	kv := kvstore.NewMemory()
	s := NewStore(kv, zerolog.Nop())

	custom := []Category{{Name: "Dive", Emoji: "🤿", Prompts: []Prompt{{ID: "d1", Text: "Plan a shore dive", Category: "Dive", Emoji: "🤿"}}}}
	require.True(t, s.Save(custom).OK())

	reloaded := NewStore(kv, zerolog.Nop())
	assert.True(t, reloaded.IsCustom())
	assert.Equal(t, custom, reloaded.All())

	require.True(t, reloaded.ResetToDefault().OK())
	assert.False(t, reloaded.IsCustom())
	_, res := kv.LoadRaw(PresetsKey)
	assert.Equal(t, kvstore.KindAbsent, res.Kind)
	assert.Len(t, NewStore(kv, zerolog.Nop()).All(), 6)
}

func TestFindAndRandom(t *testing.T) {
	s := NewStore(kvstore.NewMemory(), zerolog.Nop())

	p, ok := s.Find("mindset-2")
	require.True(t, ok)
	assert.Equal(t, "Guide me through a 2-minute breathing exercise.", p.Text)

	_, ok = s.Find("nope")
	assert.False(t, ok)

	assert.Len(t, s.Prompts(), 18)
	r, ok := s.Random(func(n int) int { return n - 1 })
	require.True(t, ok)
	assert.Equal(t, "tech-3", r.ID)

	_, ok = s.Random(nil)
	assert.True(t, ok)

	s.Save([]Category{})
	_, ok = s.Random(nil)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"yaml", "- name: Safety / Checks\n  emoji: \"🛟\"\n  prompts:\n    - id: s1\n      text: Walk me through a buddy check.\n", false},
		{"json", `[{"name":"Gear","emoji":"🧰","prompts":[{"id":"g1","text":"Pick a wetsuit"}]}]`, false},
		{"empty", `[]`, true},
		{"no name", `[{"prompts":[]}]`, true},
		{"no id", `[{"name":"x","prompts":[{"text":"hi"}]}]`, true},
		{"duplicate id", `[{"name":"x","prompts":[{"id":"a","text":"1"},{"id":"a","text":"2"}]}]`, true},
		{"garbage", `::::`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, cats, 1)
			p := cats[0].Prompts[0]
			assert.NotEmpty(t, p.Category, "category inherited")
			assert.Equal(t, cats[0].Emoji, p.Emoji, "emoji inherited")
		})
	}
}

func TestParse_ShortCategoryName(t *testing.T) {
	cats, err := Parse([]byte(`[{"name":"Safety / Checks","prompts":[{"id":"s1","text":"go"}]}]`))
	require.NoError(t, err)
	assert.Equal(t, "Safety", cats[0].Prompts[0].Category)
}

func TestImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: Gear\n  prompts:\n    - id: g1\n      text: Pick fins\n"), 0o644))

	s := NewStore(kvstore.NewMemory(), zerolog.Nop())
	cats, err := s.Import(path)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
	assert.True(t, s.IsCustom())

	_, err = s.Import(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatch_ReimportsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"A","prompts":[{"id":"a1","text":"one"}]}]`), 0o644))

	s := NewStore(kvstore.NewMemory(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []Category, 4)
	require.NoError(t, s.Watch(ctx, path, func(cats []Category, err error) {
		if err == nil {
			changes <- cats
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"B","prompts":[{"id":"b1","text":"two"}]}]`), 0o644))

	select {
	case cats := <-changes:
		require.Len(t, cats, 1)
		assert.Equal(t, "B", cats[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	p, ok := s.Find("b1")
	require.True(t, ok)
	assert.Equal(t, "two", p.Text)
}
