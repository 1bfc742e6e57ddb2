// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/divecoach/internal/preset"
	"github.com/jeranaias/divecoach/internal/ui/styles"
)

// Welcome screen copy.
const (
	WelcomeTitle      = "Welcome to Your Diving Coach 🤿"
	WelcomeBody       = "This assistant helps you understand diving principles, safety considerations, and training structure for scuba and freediving."
	WelcomeDisclaimer = "Educational only • Not a replacement for professional instruction • Always dive with a buddy"
)

// =============================================================================
// WELCOME SCREEN
// =============================================================================

// Welcome is shown while the current session has no messages. It suggests
// one preset prompt at a time.
type Welcome struct {
	theme  *styles.Theme
	width  int
	prompt preset.Prompt
	has    bool
}

// NewWelcome creates a welcome screen with no suggestion.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{theme: theme}
}

func (w *Welcome) SetTheme(theme *styles.Theme) { w.theme = theme }
func (w *Welcome) SetWidth(width int) { w.width = width }

// SetPrompt sets the suggested prompt; ok false clears it.
func (w *Welcome) SetPrompt(p preset.Prompt, ok bool) {
	w.prompt = p
	w.has = ok
}

// Prompt returns the current suggestion.
func (w Welcome) Prompt() (preset.Prompt, bool) {
	return w.prompt, w.has
}

// View renders the welcome screen.
func (w Welcome) View() string {
	width := maxInt(w.width-4, 20)
	block := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString(block.Render(w.theme.Welcome.Render(WelcomeTitle)))
	b.WriteString("\n\n")
	b.WriteString(block.Render(w.theme.Muted.Render(WelcomeBody)))
	b.WriteString("\n\n")

	if w.has {
		b.WriteString(block.Render(w.theme.Muted.Render("Try asking:")))
		b.WriteString("\n")
		card := w.prompt.Emoji + " " + w.prompt.Category + "\n" + w.prompt.Text
		b.WriteString(block.Render(w.theme.PresetSelected.Width(minInt(width, 60)).Render(card)))
		b.WriteString("\n")
		hint := w.theme.ShortcutKey.Render("enter") + " " + w.theme.ShortcutDesc.Render("ask this") + "  " +
			w.theme.ShortcutKey.Render("ctrl+r") + " " + w.theme.ShortcutDesc.Render("show me another topic")
		b.WriteString(block.Render(hint))
		b.WriteString("\n\n")
	}

	b.WriteString(block.Render(w.theme.WelcomeNote.Render(WelcomeDisclaimer)))
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
