// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/divecoach/internal/preset"
	"github.com/jeranaias/divecoach/internal/ui/styles"
	"github.com/jeranaias/divecoach/internal/util"
)

// =============================================================================
// PRESET PICKER
// =============================================================================

// PresetPicker lists every preset prompt under its category heading. The
// cursor moves over prompts only.
type PresetPicker struct {
	theme      *styles.Theme
	categories []preset.Category
	prompts    []preset.Prompt
	cursor     int
	width      int
	height     int
}

// NewPresetPicker creates an empty picker.
func NewPresetPicker(theme *styles.Theme) PresetPicker {
	return PresetPicker{theme: theme}
}

func (p *PresetPicker) SetTheme(theme *styles.Theme) { p.theme = theme }

// SetSize sets the outer dimensions.
func (p *PresetPicker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetCategories replaces the listed presets. The cursor is clamped.
func (p *PresetPicker) SetCategories(cats []preset.Category) {
	p.categories = cats
	p.prompts = p.prompts[:0]
	for _, c := range cats {
		p.prompts = append(p.prompts, c.Prompts...)
	}
	if p.cursor >= len(p.prompts) {
		p.cursor = maxInt(len(p.prompts)-1, 0)
	}
}

// Len returns the number of prompts.
func (p PresetPicker) Len() int { return len(p.prompts) }

// Cursor returns the highlighted prompt index.
func (p PresetPicker) Cursor() int { return p.cursor }

// MoveUp moves the cursor up, wrapping to the last prompt.
func (p *PresetPicker) MoveUp() {
	if len(p.prompts) == 0 {
		return
	}
	p.cursor = (p.cursor - 1 + len(p.prompts)) % len(p.prompts)
}

// MoveDown moves the cursor down, wrapping to the first prompt.
func (p *PresetPicker) MoveDown() {
	if len(p.prompts) == 0 {
		return
	}
	p.cursor = (p.cursor + 1) % len(p.prompts)
}

// Selected returns the highlighted prompt.
func (p PresetPicker) Selected() (preset.Prompt, bool) {
	if p.cursor < 0 || p.cursor >= len(p.prompts) {
		return preset.Prompt{}, false
	}
	return p.prompts[p.cursor], true
}

// View renders the picker, scrolled so the cursor stays visible.
func (p PresetPicker) View() string {
	inner := maxInt(p.width-6, 10)

	lines := []string{p.theme.PanelTitle.Render("Choose a topic"), ""}
	cursorLine := 0
	i := 0
	for _, c := range p.categories {
		lines = append(lines, p.theme.Welcome.Render(strings.TrimSpace(c.Emoji+" "+c.Name)))
		for _, prompt := range c.Prompts {
			text := util.TruncateWidth(prompt.Text, inner)
			if i == p.cursor {
				cursorLine = len(lines)
				lines = append(lines, p.theme.ShortcutKey.Render("> ")+p.theme.SessionItemSelected.Render(text))
			} else {
				lines = append(lines, "  "+p.theme.SessionItem.Render(text))
			}
			i++
		}
		lines = append(lines, "")
	}
	if len(p.prompts) == 0 {
		lines = append(lines, p.theme.Muted.Render("No presets available"))
	}
	lines = append(lines, p.theme.Muted.Render("enter ask  esc back  up/down move"))

	if p.height > 0 && len(lines) > p.height {
		start := cursorLine - p.height/2
		if start < 0 {
			start = 0
		}
		if start+p.height > len(lines) {
			start = len(lines) - p.height
		}
		lines = lines[start : start+p.height]
	}
	return strings.Join(lines, "\n")
}
