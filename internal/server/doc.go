// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a local stand-in for the coaching backend, used by
// `divecoach serve` for offline development and by tests.
//
// # Endpoints
//
//   - POST /api/chat      - streams a plain-text coaching reply word by word
//   - GET  /api/rag-stats - retrieval statistics of the queries served so far
//   - GET  /api/health    - {"status":"ok"}
//   - GET  /metrics       - Prometheus collectors
//
// Errors use the backend's body shape, {"detail": "..."}: 400 for a blank
// message or an unknown template or similarity method, 500 when the
// Responder fails.
//
// # Retrieval
//
// The default Responder is a Coach over an embedded knowledge base. Passages
// are indexed as term-frequency vectors and ranked by cosine similarity or
// by 1/(1+d) of the euclidean distance d between unit vectors. The top three
// are cited in the reply as [Source N] and recorded by the Tracker.
//
// # Usage
//
//	srv, err := server.New(server.Options{Addr: ":8000", Logger: logger})
//	if err != nil {
//		return err
//	}
//	return srv.ListenAndServe(ctx)
package server
