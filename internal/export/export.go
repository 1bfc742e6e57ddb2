// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/divecoach/internal/model"
	"github.com/jeranaias/divecoach/internal/util"
)

// Generator names the producer in exported documents.
const Generator = "divecoach"

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter writes sessions in one format.
type Exporter interface {
	// Export writes sessions to w.
	Export(sessions []model.ChatSession, w io.Writer) error

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Formats lists the accepted format names.
var Formats = []string{"markdown", "json", "yaml"}

// NewExporter returns the exporter for format. "md" and "yml" are accepted
// as aliases.
func NewExporter(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Location for rendered times (default: time.Local).
	Location *time.Location

	// Now stamps the export (default: time.Now).
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
		Location:          time.Local,
		Now:               time.Now,
	}
}

func normalize(opts *Options) *Options {
	def := DefaultOptions()
	if opts == nil {
		return def
	}
	out := *opts
	if out.OutputDir == "" {
		out.OutputDir = def.OutputDir
	}
	if out.Location == nil {
		out.Location = def.Location
	}
	if out.Now == nil {
		out.Now = def.Now
	}
	return &out
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the structured export shared by the JSON and YAML formats.
type Document struct {
	Generator string          `json:"generator" yaml:"generator"`
	Exported  string          `json:"exported" yaml:"exported"`
	Sessions  []SessionRecord `json:"sessions" yaml:"sessions"`
}

// SessionRecord is one exported session.
type SessionRecord struct {
	ID        string          `json:"id" yaml:"id"`
	Title     string          `json:"title" yaml:"title"`
	CreatedAt string          `json:"createdAt" yaml:"createdAt"`
	UpdatedAt string          `json:"updatedAt" yaml:"updatedAt"`
	Messages  []MessageRecord `json:"messages" yaml:"messages"`
}

// MessageRecord is one exported message.
type MessageRecord struct {
	Role      string `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// NewDocument converts sessions into a Document. Times are RFC 3339 in
// opts.Location.
func NewDocument(sessions []model.ChatSession, opts *Options) Document {
	opts = normalize(opts)
	stamp := func(ms int64) string {
		return time.UnixMilli(ms).In(opts.Location).Format(time.RFC3339)
	}

	doc := Document{
		Generator: Generator,
		Exported:  opts.Now().In(opts.Location).Format(time.RFC3339),
		Sessions:  make([]SessionRecord, 0, len(sessions)),
	}
	for _, s := range sessions {
		rec := SessionRecord{
			ID:        s.ID,
			Title:     s.Title(),
			CreatedAt: stamp(s.CreatedAt),
			UpdatedAt: stamp(s.UpdatedAt),
			Messages:  make([]MessageRecord, 0, len(s.Messages)),
		}
		for _, m := range s.Messages {
			mr := MessageRecord{Role: m.Role.String(), Content: m.Content}
			if opts.IncludeTimestamps {
				mr.Timestamp = stamp(m.Timestamp)
			}
			rec.Messages = append(rec.Messages, mr)
		}
		doc.Sessions = append(doc.Sessions, rec)
	}
	return doc
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile writes sessions to a new file in opts.OutputDir and returns
// its path. A single session is named after its title.
func ExportToFile(sessions []model.ChatSession, exporter Exporter, opts *Options) (string, error) {
	opts = normalize(opts)
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions to export")
	}

	var buf bytes.Buffer
	if err := exporter.Export(sessions, &buf); err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := "sessions"
	if len(sessions) == 1 {
		name = sanitizeFilename(sessions[0].Title())
	}
	filename := fmt.Sprintf("%s_%s_%s%s",
		Generator,
		name,
		opts.Now().In(opts.Location).Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "session"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
