// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/divecoach/internal/model"
)

var base = time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

func testOptions() *Options {
	return &Options{
		IncludeTimestamps: true,
		Location:          time.UTC,
		Now:               func() time.Time { return base.Add(time.Hour) },
	}
}

func testSession(id, question string) model.ChatSession {
	s := model.NewSession(id, base)
	s = s.WithMessage(model.NewUserMessage(question, base.Add(time.Minute)), base.Add(time.Minute))
	s = s.WithMessage(model.NewAssistantMessage("Always dive with a **buddy**.", base.Add(2*time.Minute)), base.Add(2*time.Minute))
	return s
}

// =============================================================================
// FACTORY
// =============================================================================

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"markdown", ".md"},
		{"md", ".md"},
		{"JSON", ".json"},
		{"yaml", ".yaml"},
		{"yml", ".yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.FileExtension())
			assert.NotEmpty(t, exp.MimeType())
		})
	}

	_, err := NewExporter("html", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: html")
}

// =============================================================================
// DOCUMENT FORMATS
// =============================================================================

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter(testOptions()).Export([]model.ChatSession{testSession("s1", "How deep can I go?")}, &buf))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, Generator, doc.Generator)
	assert.Equal(t, "2025-06-01T15:30:00Z", doc.Exported)
	require.Len(t, doc.Sessions, 1)

	s := doc.Sessions[0]
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "How deep can I go?", s.Title)
	assert.Equal(t, "2025-06-01T14:30:00Z", s.CreatedAt)
	assert.Equal(t, "2025-06-01T14:32:00Z", s.UpdatedAt)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, MessageRecord{Role: "user", Content: "How deep can I go?", Timestamp: "2025-06-01T14:31:00Z"}, s.Messages[0])
	assert.Equal(t, "assistant", s.Messages[1].Role)
}

func TestYAMLExporter(t *testing.T) {
	opts := testOptions()
	opts.IncludeTimestamps = false

	var buf bytes.Buffer
	sessions := []model.ChatSession{testSession("s1", "one"), testSession("s2", "two: colon")}
	require.NoError(t, NewYAMLExporter(opts).Export(sessions, &buf))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Sessions, 2)
	assert.Equal(t, "two: colon", doc.Sessions[1].Title)
	assert.Empty(t, doc.Sessions[0].Messages[0].Timestamp)
	assert.Contains(t, buf.String(), "createdAt:")
}

func TestNewDocument_EmptySession(t *testing.T) {
	doc := NewDocument([]model.ChatSession{model.NewSession("e", base)}, testOptions())
	require.Len(t, doc.Sessions, 1)
	assert.Equal(t, model.DefaultTitle, doc.Sessions[0].Title)
	assert.NotNil(t, doc.Sessions[0].Messages)
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporter_SingleSession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownExporter(testOptions()).Export([]model.ChatSession{testSession("s1", "Equalize *fast*?")}, &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, `title: "Equalize *fast*?"`)
	assert.Contains(t, out, "sessions: 1\n")
	assert.Contains(t, out, "generator: divecoach\n")
	assert.Contains(t, out, "# Equalize \\*fast\\*?\n")
	assert.Contains(t, out, "- **ID**: `s1`")
	assert.Contains(t, out, "### You <sub>14:31:00</sub>")
	assert.Contains(t, out, "### Coach <sub>14:32:00</sub>")
	assert.Contains(t, out, "Always dive with a **buddy**.")
	assert.Contains(t, out, "*Exported from divecoach on June 1, 2025 at 3:30 PM*")
}

func TestMarkdownExporter_NoTimestampsAndEmpty(t *testing.T) {
	opts := testOptions()
	opts.IncludeTimestamps = false

	var buf bytes.Buffer
	sessions := []model.ChatSession{testSession("s1", "hi"), model.NewSession("s2", base)}
	require.NoError(t, NewMarkdownExporter(opts).Export(sessions, &buf))
	out := buf.String()

	assert.Contains(t, out, "### You\n")
	assert.NotContains(t, out, "<sub>")
	assert.Contains(t, out, "*No messages yet.*")
	assert.Contains(t, out, "sessions: 2\n")
	assert.NotContains(t, out, "title:", "multi-session frontmatter has no title")

	require.Error(t, NewMarkdownExporter(opts).Export(nil, &buf))
}

func TestEscapeYAML_NewlineInjection(t *testing.T) {
	got := escapeYAML("Test\nInjection: malicious")
	assert.Equal(t, `"Test\nInjection: malicious"`, got)
	assert.NotContains(t, got, "\n")
	assert.Equal(t, "plain", escapeYAML("plain"))
}

func TestFormatRoleLabel(t *testing.T) {
	assert.Equal(t, "You", formatRoleLabel(model.RoleUser))
	assert.Equal(t, "Coach", formatRoleLabel(model.RoleAssistant))
	assert.Equal(t, "System", formatRoleLabel("system"))
	assert.Equal(t, "Unknown", formatRoleLabel(""))
}

// =============================================================================
// FILES
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.OutputDir = filepath.Join(dir, "out")

	exp, err := NewExporter("md", opts)
	require.NoError(t, err)

	path, err := ExportToFile([]model.ChatSession{testSession("s1", "Buddy checks: why?")}, exp, opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.OutputDir, "divecoach_Buddy_checks-_why-_20250601_153000.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Buddy checks")

	path, err = ExportToFile([]model.ChatSession{testSession("a", "x"), testSession("b", "y")}, exp, opts)
	require.NoError(t, err)
	assert.Equal(t, "divecoach_sessions_20250601_153000.md", filepath.Base(path))

	_, err = ExportToFile(nil, exp, opts)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "session", sanitizeFilename(""))
	assert.Equal(t, "x-y", sanitizeFilename("x\x01y"))
	assert.LessOrEqual(t, len([]rune(sanitizeFilename(strings.Repeat("é", 80)))), 50)
}
