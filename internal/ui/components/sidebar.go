// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/jeranaias/divecoach/internal/model"
	"github.com/jeranaias/divecoach/internal/ui/styles"
	"github.com/jeranaias/divecoach/internal/util"
)

// =============================================================================
// SESSION SIDEBAR
// =============================================================================

// linesPerItem is a title line, a meta line and a blank separator.
const linesPerItem = 3

// Sidebar lists sessions newest first.
type Sidebar struct {
	theme    *styles.Theme
	sessions []model.ChatSession
	selected string
	width    int
	height   int
	now      func() time.Time
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) Sidebar {
	return Sidebar{theme: theme, now: time.Now}
}

// SetTheme swaps the styles.
func (s *Sidebar) SetTheme(theme *styles.Theme) { s.theme = theme }

// SetSize sets the outer dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetClock overrides the clock used for relative dates.
func (s *Sidebar) SetClock(now func() time.Time) { s.now = now }

// SetSessions replaces the listed sessions and the highlighted id.
func (s *Sidebar) SetSessions(sessions []model.ChatSession, selected string) {
	s.sessions = sessions
	s.selected = selected
}

// View renders the sidebar.
func (s Sidebar) View() string {
	inner := maxInt(s.width-4, 8)

	var b strings.Builder
	b.WriteString(s.theme.PanelTitle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(s.sessions) == 0 {
		b.WriteString(s.theme.Muted.Render("No conversations yet"))
		return s.frame(b.String())
	}

	start, end := s.window()
	for i := start; i < end; i++ {
		sess := s.sessions[i]
		title := util.TruncateWidth(sess.Title(), inner)
		if sess.ID == s.selected {
			b.WriteString(s.theme.SessionItemSelected.Render(util.PadWidth(title, inner)))
		} else {
			b.WriteString(s.theme.SessionItem.Render(title))
		}
		b.WriteString("\n")

		meta := RelativeDay(sess.Updated(), s.now()) + " · " + plural(len(sess.Messages), "message")
		b.WriteString(s.theme.SessionMeta.Render(util.TruncateWidth(meta, inner)))
		b.WriteString("\n\n")
	}
	if hidden := len(s.sessions) - (end - start); hidden > 0 {
		b.WriteString(s.theme.Muted.Render("+" + plural(hidden, "more conversation")))
	}
	return s.frame(strings.TrimRight(b.String(), "\n"))
}

// window returns the visible item range, keeping the selection in view.
func (s Sidebar) window() (int, int) {
	fit := len(s.sessions)
	if s.height > 0 {
		fit = maxInt((s.height-3)/linesPerItem, 1)
	}
	if fit >= len(s.sessions) {
		return 0, len(s.sessions)
	}
	sel := 0
	for i, sess := range s.sessions {
		if sess.ID == s.selected {
			sel = i
			break
		}
	}
	start := 0
	if sel >= fit {
		start = sel - fit + 1
	}
	return start, start + fit
}

func (s Sidebar) frame(content string) string {
	style := s.theme.Sidebar.Width(maxInt(s.width-1, 1))
	if s.height > 0 {
		style = style.Height(s.height)
	}
	return style.Render(content)
}
