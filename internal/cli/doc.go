// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the divecoach command line.
//
// Commands are built with cobra. Every command loads the config in the
// root's PersistentPreRunE and then opens an app, which wires the storage
// backend into the session, preset and theme stores and builds the API
// client. Running divecoach with no subcommand on a terminal starts the
// TUI; logs then go to the log file instead of stderr.
//
//	divecoach                       TUI
//	divecoach chat                  line REPL with history (liner)
//	divecoach ask <message>         one question
//	divecoach sessions ...          list, show, new, clear, export
//	divecoach stats [--watch]       usage and retrieval statistics
//	divecoach presets ...           list, reset, import
//	divecoach theme [mode|next]     colour theme
//	divecoach health                backend reachability
//	divecoach serve                 mock backend
//	divecoach version
package cli
