// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics computes and polls usage statistics.
//
// # Sources
//
// All sources return a model.Stats snapshot in the statistics endpoint's
// shape, so the panels that render them do not care where data came from:
//
//   - Local: core metrics computed from the session store
//   - Remote: the backend's GET /api/rag-stats
//   - Mock: random but plausible core metrics
//   - Merged: core from one source, retrieval from another (the default:
//     local core plus remote retrieval)
//
// # Polling
//
// Poller refreshes a source every 30 seconds by default. Manual refreshes
// go through a token bucket so a held-down key cannot flood the backend.
// A failed fetch keeps the previous snapshot and records the error.
package metrics
