// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package preset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoPresets is returned when an imported file holds no categories.
var ErrNoPresets = errors.New("preset: file contains no categories")

// Parse decodes categories from YAML or JSON (JSON is valid YAML) and
// normalizes them: a prompt without category or emoji inherits the
// category's. Prompt ids must be non-empty and unique.
func Parse(data []byte) ([]Category, error) {
	var cats []Category
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("preset: parse: %w", err)
	}
	if len(cats) == 0 {
		return nil, ErrNoPresets
	}

	seen := make(map[string]bool)
	for i := range cats {
		c := &cats[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("preset: category %d has no name", i+1)
		}
		for j := range c.Prompts {
			p := &c.Prompts[j]
			if p.ID == "" {
				return nil, fmt.Errorf("preset: prompt %d of %q has no id", j+1, c.Name)
			}
			if strings.TrimSpace(p.Text) == "" {
				return nil, fmt.Errorf("preset: prompt %q has no text", p.ID)
			}
			if seen[p.ID] {
				return nil, fmt.Errorf("preset: duplicate prompt id %q", p.ID)
			}
			seen[p.ID] = true
			if p.Category == "" {
				p.Category = shortName(c.Name)
			}
			if p.Emoji == "" {
				p.Emoji = c.Emoji
			}
		}
		if c.Prompts == nil {
			c.Prompts = []Prompt{}
		}
	}
	return cats, nil
}

// Import reads path, validates it and saves it as the user's presets.
func (s *Store) Import(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	cats, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if res := s.Save(cats); !res.OK() {
		s.logger.Warn().Str("result", res.String()).Msg("imported presets not persisted")
	}
	s.logger.Info().Str("path", path).Int("categories", len(cats)).Msg("presets imported")
	return clone(cats), nil
}

// shortName is the part of a category name before the first " / ".
func shortName(name string) string {
	if i := strings.Index(name, " / "); i > 0 {
		return name[:i]
	}
	return name
}
