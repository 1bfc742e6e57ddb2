// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual building blocks of the divecoach TUI.

Components are plain values with setters and a View method. They hold no
references to stores; the chat model copies the data they render into them
before every frame.

# Components

  - Sidebar: the session list, newest first, with the selection highlighted
  - StatusBar: backend health, stream state, notices and shortcuts
  - Welcome: the empty-session screen with one suggested topic
  - PresetPicker: every preset grouped by category, with a cursor
  - Dashboard: usage metrics and retrieval statistics

# Usage

	bar := components.NewStatusBar(theme)
	bar.SetWidth(width)
	bar.SetStatus(components.StatusReady)
	bar.SetNotice("Changes may not be saved")
	fmt.Println(bar.View())
*/
package components
