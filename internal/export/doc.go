// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat sessions to Markdown, JSON or YAML.
//
// JSON and YAML share one structured Document with RFC 3339 times. Markdown
// is a readable transcript with YAML frontmatter.
//
//	exp, err := export.NewExporter("markdown", nil)
//	if err != nil {
//		return err
//	}
//	path, err := export.ExportToFile(sessions, exp, &export.Options{OutputDir: dir})
package export
