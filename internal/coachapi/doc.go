// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coachapi provides the HTTP client for the coaching backend.
//
// The backend exposes three contracts:
//
//   - POST /api/chat: JSON request, raw chunked text reply
//   - GET /api/rag-stats: statistics snapshot (see model.Stats)
//   - GET /api/health: success or failure only
//
// StreamChat decodes the reply incrementally as UTF-8 and hands every piece
// to a callback in arrival order. Errors are typed: *APIError for non-success
// responses (Detail is the body), *ClientError for transport problems,
// cancellation and timeouts. Use IsCanceled and IsTimeout to tell them apart.
package coachapi
