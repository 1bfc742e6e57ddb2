// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package preset manages the ready-made prompts offered on an empty chat.
//
// Six built-in categories are embedded as YAML. Users may replace them by
// importing a YAML or JSON file; the imported set is stored under
// PresetsKey and survives restarts until ResetToDefault removes it.
package preset
