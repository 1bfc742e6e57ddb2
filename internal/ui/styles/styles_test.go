// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/divecoach/internal/theme"
)

func TestPaletteFor(t *testing.T) {
	for _, m := range theme.Modes {
		p := PaletteFor(m)
		assert.NotEmpty(t, p.Primary, m)
		assert.NotEmpty(t, p.Markdown, m)
	}
	assert.Equal(t, lipgloss.Color("#5eead4"), PaletteFor(theme.Hacker).Primary)
	assert.Equal(t, PaletteFor(theme.Light), PaletteFor("neon"))
}

func TestNewTheme_InvalidModeFallsBack(t *testing.T) {
	th := NewTheme("neon")
	assert.Equal(t, theme.Light, th.Mode)
}

func TestLayoutMode(t *testing.T) {
	th := NewTheme(theme.Light)

	th.SetSize(50, 20)
	assert.Equal(t, LayoutNarrow, th.GetLayoutMode())
	assert.False(t, th.ShowSidebar())
	assert.Equal(t, 0, th.SidebarWidth())

	th.SetSize(80, 20)
	assert.Equal(t, LayoutMedium, th.GetLayoutMode())
	assert.Equal(t, 24, th.SidebarWidth())

	th.SetSize(140, 40)
	assert.Equal(t, LayoutWide, th.GetLayoutMode())
	assert.True(t, th.ShowSidebar())
}

func TestBar(t *testing.T) {
	tests := []struct {
		width      int
		value, max float64
		want       string
	}{
		{10, 5, 10, "#####....."},
		{4, 0, 10, "...."},
		{4, 20, 10, "####"},
		{4, 3, 0, "...."},
		{0, 3, 10, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bar(tt.width, tt.value, tt.max))
	}
}
