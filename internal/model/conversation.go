// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation represents a chat session: an ordered list of messages plus
// the persona it was held under.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Persona   string     `json:"persona"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation(persona string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		Persona:   persona,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a message and bumps the update timestamp.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages in the conversation.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// LastMessage returns the most recent message, or nil when empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// PersistableMessages returns the messages that should be saved: pending
// voice placeholders are display-only and are skipped.
func (c *Conversation) PersistableMessages() []*Message {
	out := make([]*Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Pending {
			continue
		}
		out = append(out, m)
	}
	return out
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// titleMaxLen is the character budget for a derived title.
const titleMaxLen = 50

// DeriveTitle builds a title from the first non-pending user message: the
// voice marker is stripped, whitespace trimmed, and anything over 50
// characters is cut with a trailing ellipsis. Falls back to
// "New Conversation" when no user message exists yet.
func (c *Conversation) DeriveTitle() string {
	for _, m := range c.Messages {
		if m.Role != RoleUser || m.Pending {
			continue
		}
		title := strings.TrimSpace(strings.TrimPrefix(m.Content, VoicePrefix))
		if title == "" {
			continue
		}
		runes := []rune(title)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "…"
		}
		return title
	}
	return "New Conversation"
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// ConversationSummary is the lightweight listing form of a conversation,
// used for pickers and search results.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Persona      string    `json:"persona"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
