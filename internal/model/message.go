// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Coach"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ChatMessage is one turn of a conversation. Messages are values and are
// never modified after creation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Timestamp is epoch milliseconds, assigned when the message is appended.
	Timestamp int64 `json:"timestamp"`
}

// NewMessage creates a message stamped with at.
func NewMessage(role Role, content string, at time.Time) ChatMessage {
	return ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: at.UnixMilli(),
	}
}

// NewUserMessage creates a user message stamped with at.
func NewUserMessage(content string, at time.Time) ChatMessage {
	return NewMessage(RoleUser, content, at)
}

// NewAssistantMessage creates an assistant message stamped with at.
func NewAssistantMessage(content string, at time.Time) ChatMessage {
	return NewMessage(RoleAssistant, content, at)
}

// Time returns the message timestamp as a time.Time.
func (m ChatMessage) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// IsUser reports whether the message was sent by the user.
func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}
