// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/divecoach/internal/ui/styles"
	"github.com/jeranaias/divecoach/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the connection and stream state shown on the left.
type Status int

const (
	StatusChecking Status = iota
	StatusReady
	StatusStreaming
	StatusOffline
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "Connecting..."
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusOffline:
		return "Backend offline"
	default:
		return "Unknown"
	}
}

// Icon pairs the status with a shape so it reads without colour.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return "~"
	case StatusOffline:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Info
	}
}

// Shortcut is one key hint on the right-hand side.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the TUI.
type StatusBar struct {
	theme     *styles.Theme
	width     int
	status    Status
	backend   string
	notice    string
	shortcuts []Shortcut
}

// NewStatusBar creates a status bar in the checking state.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme}
}

func (s *StatusBar) SetTheme(theme *styles.Theme) { s.theme = theme }
func (s *StatusBar) SetWidth(width int) { s.width = width }
func (s *StatusBar) SetStatus(status Status) { s.status = status }
func (s *StatusBar) SetBackend(url string) { s.backend = url }
func (s *StatusBar) SetNotice(notice string) { s.notice = notice }
func (s *StatusBar) SetShortcuts(sc []Shortcut) { s.shortcuts = sc }
func (s StatusBar) Status() Status { return s.status }
func (s StatusBar) Notice() string { return s.notice }

// View renders the bar. Shortcuts are dropped from the end until the line
// fits; status and notice are always shown.
func (s StatusBar) View() string {
	left := s.renderStatus()
	if s.backend != "" {
		left += " " + s.theme.Muted.Render(s.backend)
	}
	if s.notice != "" {
		left += "  " + s.theme.Notice.Render(styles.StatusIndicators.Warning+" "+s.notice)
	}

	avail := s.width - 2 - lipgloss.Width(left)
	right := s.renderShortcuts(avail - 2)

	gap := avail - lipgloss.Width(right)
	if gap < 1 || s.width <= 0 {
		gap = 1
	}
	return s.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

func (s StatusBar) renderStatus() string {
	label := s.status.Icon() + " " + s.status.String()
	switch s.status {
	case StatusReady, StatusStreaming:
		return s.theme.StatusOK.Render(label)
	case StatusOffline:
		return s.theme.StatusDown.Render(label)
	default:
		return s.theme.Muted.Render(label)
	}
}

func (s StatusBar) renderShortcuts(avail int) string {
	parts := make([]string, 0, len(s.shortcuts))
	used := 0
	for _, sc := range s.shortcuts {
		w := util.StringWidth(sc.Key) + 1 + util.StringWidth(sc.Desc)
		if len(parts) > 0 {
			w += 2
		}
		if s.width > 0 && used+w > avail {
			break
		}
		used += w
		parts = append(parts, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(parts, "  ")
}
