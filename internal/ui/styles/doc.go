// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the divecoach TUI.
//
// Each theme mode (light, hacker, designer) has a Palette; NewTheme turns a
// palette into lipgloss styles. Switching theme means building a new Theme
// and re-rendering.
//
//	t := styles.NewTheme(theme.Hacker)
//	fmt.Println(t.UserBubble.Render("How deep can I go on air?"))
package styles
