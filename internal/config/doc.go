// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for divecoach.
//
// # Key Types
//
//   - Config: root configuration with api, storage, stats, ui, log and server sections
//   - ValidationError, ValidateErrors: collected validation problems
//
// # Usage
//
//	cfg, err := config.Load()
//	client := coachapi.NewClient(&coachapi.Config{BaseURL: cfg.API.BaseURL})
//
// # Example config.toml
//
//	[api]
//	base_url = "http://localhost:8000"
//	template = "beginner"
//
//	[storage]
//	backend = "sqlite"
//
//	[stats]
//	source = "merged"
//	refresh_interval_secs = 30
//
// # Environment Variables
//
//   - DIVECOACH_HOME: config and data directory
//   - DIVECOACH_API_URL (or NEXT_PUBLIC_API_URL): backend base URL
//   - DIVECOACH_MODEL, DIVECOACH_TEMPLATE: request defaults
//   - DIVECOACH_STORAGE_BACKEND, DIVECOACH_REDIS_URL: storage selection
//   - DIVECOACH_STATS_SOURCE, DIVECOACH_THEME, DIVECOACH_LOG_LEVEL
//   - DIVECOACH_STREAM_TIMEOUT: seconds per streamed reply
package config
