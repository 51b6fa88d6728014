// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and personas.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// VoicePrefix marks a message that arrived through voice transcription.
const VoicePrefix = "🎤 "

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Persona active when the message was created.
	Persona string `json:"persona,omitempty"`

	// Pending marks a voice message whose transcript has not arrived yet.
	// Pending messages are display-only: never persisted, never included in
	// prompt history, never used for title derivation.
	Pending bool `json:"-"`

	// Attachment metadata (preview is a data URI for images).
	MediaName    string `json:"media_name,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	MediaPreview string `json:"media_preview,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// NewVoiceMessage creates a resolved voice message. The transcript is
// prefixed with the microphone marker so transcribed input is visually
// distinct from typed input.
func NewVoiceMessage(transcript string) *Message {
	return NewMessage(RoleUser, VoicePrefix+transcript)
}

// NewPendingVoiceMessage creates the placeholder shown while transcription
// is in flight.
func NewPendingVoiceMessage() *Message {
	msg := NewMessage(RoleUser, VoicePrefix+"...")
	msg.Pending = true
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsVoice reports whether the message arrived through voice transcription.
func (m *Message) IsVoice() bool {
	return strings.HasPrefix(m.Content, VoicePrefix)
}

// Transcript returns the content with the voice marker removed.
func (m *Message) Transcript() string {
	return strings.TrimSpace(strings.TrimPrefix(m.Content, VoicePrefix))
}

// HasMedia reports whether the message carries an attachment.
func (m *Message) HasMedia() bool {
	return m.MediaName != ""
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
