// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/divecoach/internal/model"
)

// YAMLExporter writes a Document as YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	return &YAMLExporter{options: normalize(opts)}
}

// Export writes sessions as one YAML document.
func (e *YAMLExporter) Export(sessions []model.ChatSession, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(sessions, e.options)); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
