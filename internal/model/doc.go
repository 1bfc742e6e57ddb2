// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions, messages
// and usage statistics.
//
// # Key Types
//
//   - ChatMessage: immutable message with role, content and epoch-ms timestamp
//   - ChatSession: conversation thread with append-only messages
//   - Metrics: usage summary computed from sessions or fetched remotely
//   - RetrievalStats: optional retrieval quality aggregates from the backend
//
// # Usage
//
//	s := model.NewSession(id, time.Now())
//	s = s.WithMessage(model.NewUserMessage("How do I equalize?", time.Now()), time.Now())
//	fmt.Println(s.Title())
//
// The JSON field names match the persisted layout used by earlier
// releases (camelCase for sessions and metrics, snake_case for retrieval
// statistics), so existing stores load unchanged.
package model
