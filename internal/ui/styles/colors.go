// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/divecoach/internal/theme"
)

// =============================================================================
// PALETTES
// =============================================================================

// Palette is the set of colours one theme mode is drawn with.
type Palette struct {
	Bg            lipgloss.Color
	Surface       lipgloss.Color
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Text          lipgloss.Color
	TextSecondary lipgloss.Color
	Border        lipgloss.Color

	UserBg   lipgloss.Color
	UserText lipgloss.Color
	BotBg    lipgloss.Color
	BotText  lipgloss.Color

	ChartLine lipgloss.Color
	ChartBar  lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Card accents for the four headline metrics.
	Cards [4]lipgloss.Color

	// Glamour style name used for assistant markdown.
	Markdown string
}

var palettes = map[theme.Mode]Palette{
	theme.Light: {
		Bg:            "#f3f4f6",
		Surface:       "#ffffff",
		Primary:       "#3b82f6",
		Secondary:     "#6b7280",
		Text:          "#1f2937",
		TextSecondary: "#6b7280",
		Border:        "#e5e7eb",
		UserBg:        "#3b82f6",
		UserText:      "#ffffff",
		BotBg:         "#ffffff",
		BotText:       "#1f2937",
		ChartLine:     "#3b82f6",
		ChartBar:      "#10b981",
		Success:       "#166534",
		Warning:       "#d97706",
		Error:         "#e11d48",
		Cards:         [4]lipgloss.Color{"#3b82f6", "#10b981", "#9333ea", "#f97316"},
		Markdown:      "light",
	},
	theme.Hacker: {
		Bg:            "#0f1115",
		Surface:       "#1a1c20",
		Primary:       "#5eead4",
		Secondary:     "#94a3b8",
		Text:          "#e2e8f0",
		TextSecondary: "#94a3b8",
		Border:        "#5eead4",
		UserBg:        "#5eead4",
		UserText:      "#0f1115",
		BotBg:         "#1a1c20",
		BotText:       "#e2e8f0",
		ChartLine:     "#5eead4",
		ChartBar:      "#5eead4",
		Success:       "#5eead4",
		Warning:       "#fbbf24",
		Error:         "#fb7185",
		Cards:         [4]lipgloss.Color{"#5eead4", "#5eead4", "#5eead4", "#5eead4"},
		Markdown:      "dracula",
	},
	theme.Designer: {
		Bg:            "#fef7f0",
		Surface:       "#fff9f3",
		Primary:       "#d97757",
		Secondary:     "#b8956a",
		Text:          "#2d1b0e",
		TextSecondary: "#6b5d4a",
		Border:        "#d97757",
		UserBg:        "#d97757",
		UserText:      "#ffffff",
		BotBg:         "#fff9f3",
		BotText:       "#2d1b0e",
		ChartLine:     "#d97757",
		ChartBar:      "#b8956a",
		Success:       "#2d1b0e",
		Warning:       "#b45309",
		Error:         "#be123c",
		Cards:         [4]lipgloss.Color{"#d97757", "#b8956a", "#c2410c", "#a16207"},
		Markdown:      "light",
	},
}

// PaletteFor returns the palette of mode, falling back to the default mode.
func PaletteFor(mode theme.Mode) Palette {
	if p, ok := palettes[mode]; ok {
		return p
	}
	return palettes[theme.Default]
}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators pair each status with a shape so it reads without colour.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Info    string
}{
	Success: "[OK]",
	Error:   "[ERR]",
	Warning: "[!]",
	Info:    "[i]",
}
