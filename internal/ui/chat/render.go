// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/divecoach/internal/model"
)

// errorPrefix marks assistant messages that record a failed request.
const errorPrefix = "Error:"

// =============================================================================
// MARKDOWN
// =============================================================================

// markdownRenderer caches one glamour renderer per style and width.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown to styled terminal text, falling back to the
// raw text if glamour fails.
func (r *markdownRenderer) render(content, style string, width int) string {
	if r.renderer == nil || r.style != style || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		r.renderer, r.style, r.width = tr, style, width
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// CONVERSATION
// =============================================================================

// showsWelcome reports whether the current session has nothing to show.
func (m Model) showsWelcome() bool {
	if m.showsPartial() {
		return false
	}
	cur := m.deps.Sessions.Current()
	return cur == nil || len(cur.Messages) == 0
}

// renderConversation renders the selected session, plus the partial reply
// when it streams into that session.
func (m Model) renderConversation() string {
	if m.showsWelcome() {
		return m.welcome.View()
	}

	width := m.viewport.Width
	var b strings.Builder
	if cur := m.deps.Sessions.Current(); cur != nil {
		for _, msg := range cur.Messages {
			b.WriteString(m.renderMessage(msg, width))
			b.WriteString("\n\n")
		}
	}
	if m.showsPartial() {
		b.WriteString(m.renderPartial(width))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMessage(msg model.ChatMessage, width int) string {
	bubble := bubbleWidth(width)
	stamp := m.theme.Timestamp.Render(msg.Time().Format("15:04"))

	if msg.IsUser() {
		label := m.theme.UserLabel.Render(msg.Role.DisplayName()) + " " + stamp
		return label + "\n" + m.theme.UserBubble.Width(bubble).Render(msg.Content)
	}

	label := m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + " " + stamp
	if strings.HasPrefix(msg.Content, errorPrefix) {
		return label + "\n" + m.theme.ErrorBubble.Width(bubble).Render(msg.Content)
	}
	return label + "\n" + m.theme.AssistantBubble.Width(bubble).Render(m.renderMarkdown(msg.Content, bubble-2))
}

func (m Model) renderPartial(width int) string {
	label := m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName()) + " " + m.spinner.View()
	body := m.partial
	if body == "" {
		body = m.theme.Muted.Render("Thinking...")
	}
	return label + "\n" + m.theme.Partial.Width(bubbleWidth(width)).Render(body)
}

func (m Model) renderMarkdown(content string, width int) string {
	if !m.opts.Markdown || m.md == nil {
		return content
	}
	return m.md.render(content, m.theme.Palette.Markdown, width)
}

// bubbleWidth leaves room for the bubble margin and the viewport edge.
func bubbleWidth(width int) int {
	w := width - 6
	if w < 10 {
		w = 10
	}
	return w
}
