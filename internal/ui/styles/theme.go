// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/divecoach/internal/theme"
)

// Theme holds all the styled components for one theme mode.
type Theme struct {
	Mode    theme.Mode
	Palette Palette

	// Terminal capabilities
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER AND STATUS
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderMeta   lipgloss.Style
	StatusBar    lipgloss.Style
	StatusOK     lipgloss.Style
	StatusDown   lipgloss.Style
	Notice       lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	Partial         lipgloss.Style
	Timestamp       lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputDisabled  lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// PRESETS AND METRICS
	// ==========================================================================

	Welcome        lipgloss.Style
	WelcomeNote    lipgloss.Style
	PresetItem     lipgloss.Style
	PresetSelected lipgloss.Style
	Panel          lipgloss.Style
	PanelTitle     lipgloss.Style
	StatsLabel     lipgloss.Style
	StatsValue     [4]lipgloss.Style
	ChartBar       lipgloss.Style
	Muted          lipgloss.Style
}

// NewTheme builds the styles for mode.
func NewTheme(mode theme.Mode) *Theme {
	if !mode.Valid() {
		mode = theme.Default
	}
	profile := termenv.ColorProfile()
	t := &Theme{
		Mode:         mode,
		Palette:      PaletteFor(mode),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles from the palette.
func (t *Theme) initStyles() {
	p := t.Palette

	// Header
	t.Header = lipgloss.NewStyle().
		Foreground(p.Text).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	t.HeaderMeta = lipgloss.NewStyle().Foreground(p.TextSecondary)

	// Status
	t.StatusBar = lipgloss.NewStyle().Foreground(p.TextSecondary).Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	t.StatusDown = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	t.Notice = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(p.TextSecondary)

	// Messages
	t.UserLabel = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(p.UserText).
		Background(p.UserBg).
		Padding(0, 1).
		MarginLeft(4)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(p.BotText).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1).
		MarginRight(4)
	t.ErrorBubble = t.AssistantBubble.
		BorderForeground(p.Error).
		Foreground(p.Error)
	t.Partial = t.AssistantBubble.BorderStyle(lipgloss.NormalBorder()).Faint(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(p.TextSecondary).Italic(true)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	t.InputDisabled = lipgloss.NewStyle().Foreground(p.TextSecondary).Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.SessionItem = lipgloss.NewStyle().Foreground(p.Text)
	t.SessionItemSelected = lipgloss.NewStyle().Foreground(p.UserText).Background(p.Primary).Bold(true)
	t.SessionMeta = lipgloss.NewStyle().Foreground(p.TextSecondary)

	// Presets
	t.Welcome = lipgloss.NewStyle().Foreground(p.Text).Bold(true)
	t.WelcomeNote = lipgloss.NewStyle().Foreground(p.TextSecondary).Italic(true)
	t.PresetItem = lipgloss.NewStyle().
		Foreground(p.Text).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.PresetSelected = t.PresetItem.BorderForeground(p.Primary).Foreground(p.Primary)

	// Metrics
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.PanelTitle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	t.StatsLabel = lipgloss.NewStyle().Foreground(p.TextSecondary)
	for i, c := range p.Cards {
		t.StatsValue[i] = lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	t.ChartBar = lipgloss.NewStyle().Foreground(p.ChartBar)
	t.Muted = lipgloss.NewStyle().Foreground(p.TextSecondary)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, no sidebar
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// ShowSidebar reports whether the session sidebar fits.
func (t *Theme) ShowSidebar() bool {
	return t.GetLayoutMode() != LayoutNarrow
}

// SidebarWidth returns the sidebar width for the current layout.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutWide:
		return 32
	case LayoutMedium:
		return 24
	default:
		return 0
	}
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderStatus renders a status line with a shape indicator.
func (t *Theme) RenderStatus(ok bool, message string) string {
	if ok {
		return t.StatusOK.Render(StatusIndicators.Success + " " + message)
	}
	return t.StatusDown.Render(StatusIndicators.Error + " " + message)
}

// RenderBar draws a horizontal bar of width cells filled to value/max.
func (t *Theme) RenderBar(width int, value, max float64) string {
	return t.ChartBar.Render(Bar(width, value, max))
}

// Bar returns an unstyled bar of width cells filled to value/max.
func Bar(width int, value, max float64) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 && value > 0 {
		filled = int(float64(width)*value/max + 0.5)
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
