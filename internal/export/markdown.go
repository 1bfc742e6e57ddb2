// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/divecoach/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes sessions as a Markdown transcript with YAML
// frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	return &MarkdownExporter{options: normalize(opts)}
}

// Export writes sessions in Markdown.
func (e *MarkdownExporter) Export(sessions []model.ChatSession, w io.Writer) error {
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions to export")
	}
	loc := e.options.Location
	now := e.options.Now().In(loc)

	var sb strings.Builder

	// YAML frontmatter with metadata
	sb.WriteString("---\n")
	if len(sessions) == 1 {
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(sessions[0].Title())))
		sb.WriteString(fmt.Sprintf("date: %s\n", sessions[0].Created().In(loc).Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("sessions: %d\n", len(sessions)))
	sb.WriteString(fmt.Sprintf("exported: %s\n", now.Format(time.RFC3339)))
	sb.WriteString("generator: " + Generator + "\n")
	sb.WriteString("---\n\n")

	for i, s := range sessions {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		e.writeSession(&sb, s)
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from divecoach on %s*\n",
		now.Format("January 2, 2006 at 3:04 PM")))

	_, err := io.WriteString(w, sb.String())
	return err
}

func (e *MarkdownExporter) writeSession(sb *strings.Builder, s model.ChatSession) {
	loc := e.options.Location

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(s.Title())))

	sb.WriteString("## Session Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID**: `%s`\n", s.ID))
	sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(s.Created().In(loc))))
	sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(s.Updated().In(loc))))
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n\n", len(s.Messages)))

	sb.WriteString("## Conversation\n\n")
	if len(s.Messages) == 0 {
		sb.WriteString("*No messages yet.*\n")
		return
	}

	for i, msg := range s.Messages {
		label := formatRoleLabel(msg.Role)
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Time().In(loc))))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		// Content is already Markdown.
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if i < len(s.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatRoleLabel returns a formatted label for the message role.
func formatRoleLabel(role model.Role) string {
	switch role {
	case "":
		return "Unknown"
	case model.RoleUser, model.RoleAssistant:
		return role.DisplayName()
	default:
		runes := []rune(string(role))
		return strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes s when it would not survive as a plain YAML scalar.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
