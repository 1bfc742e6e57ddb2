// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives one chat exchange: append the user's message,
// stream the reply, then commit it as a single assistant message.
//
// State machine:
//
//	Idle --Send--> Streaming --chunks--> Streaming --end--> Completing --> Idle
//
// A failed request commits "Error: <detail>"; a cancelled one commits the
// partial reply followed by CancelledMarker. In every case the session
// receives exactly one assistant message and the controller returns to Idle.
package stream
