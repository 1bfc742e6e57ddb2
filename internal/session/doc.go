// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the collection of chat sessions.
//
// The Store is created with Open, which reads the collection once from a
// kvstore.Store. After that the in-memory collection is authoritative and
// every mutation is written through immediately. Mutations are expressed as
// pure reducers (read the collection, compute the next one, replace it)
// applied under a single mutex, so concurrent senders never lose updates.
//
// # Key Types
//
//   - Store: session collection with write-through persistence
//   - Options: clock, id generator and logger injection
//
// # Usage
//
//	sessions := session.Open(kv, session.Options{Logger: logger})
//	current := sessions.ResolveCurrent(selectedID)
//	target := sessions.GetOrCreateSession(current)
//	sessions.AppendMessage(model.NewUserMessage("Hi", time.Now()), target.ID)
//
// # Reconciliation
//
// AppendMessage never fails. An id that is not in the collection yet gets a
// session created under exactly that id, which covers a reply that lands
// after the user navigated to a session whose record was never written.
package session
