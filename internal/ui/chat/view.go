// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/divecoach/internal/util"
)

// appTitle is shown in the header.
const appTitle = "🤿 Diving Coach"

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderInput(),
	)
	body := main
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.status.View())
}

func (m Model) renderHeader() string {
	req := m.deps.Controller.Request()
	meta := req.Template + " · " + req.SimilarityMethod
	if req.Model != "" {
		meta = req.Model + " · " + meta
	}
	if m.opts.Version != "" {
		meta += " · v" + m.opts.Version
	}

	width := m.mainWidth()
	title := m.theme.HeaderTitle.Render(appTitle)
	room := width - 4 - lipgloss.Width(title)
	line := title
	if room > 3 {
		line += "  " + m.theme.HeaderMeta.Render(util.TruncateWidth(meta, room-2))
	}
	return m.theme.Header.Width(width).Render(line)
}

func (m Model) renderContent() string {
	if m.mode == viewPresets {
		return lipgloss.NewStyle().Width(m.viewport.Width).Height(m.viewport.Height).Render(m.picker.View())
	}
	return m.viewport.View()
}

func (m Model) renderInput() string {
	width := m.mainWidth()
	if m.streaming {
		return m.theme.InputContainer.Width(width).Render(m.theme.InputDisabled.Render("Waiting for the coach... (esc to cancel)"))
	}
	return m.theme.InputContainer.Width(width).Render(m.input.View())
}
