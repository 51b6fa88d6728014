// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components contains the stateless render helpers for the chat
// view: header, status bar, transcript messages, help, and the recording
// indicator.
package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// NewMarkdownRenderer builds the glamour renderer used for assistant
// replies. Returns nil when the renderer cannot be constructed; callers fall
// back to plain text.
func NewMarkdownRenderer(width int, dark bool) *glamour.TermRenderer {
	style := glamour.WithStandardStyle("light")
	if dark {
		style = glamour.WithStandardStyle("dark")
	}
	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil
	}
	return r
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// MessageView renders one transcript entry.
type MessageView struct {
	Theme    *styles.Theme
	Markdown *glamour.TermRenderer

	// ShowTimestamps adds a clock next to each label.
	ShowTimestamps bool
}

// Render returns the message formatted for the transcript.
func (v *MessageView) Render(msg *model.Message) string {
	switch msg.Role {
	case model.RoleSystem:
		return v.Theme.SystemMessage.Render(msg.Content)
	case model.RoleUser:
		return v.renderUser(msg)
	default:
		return v.renderAssistant(msg)
	}
}

func (v *MessageView) renderUser(msg *model.Message) string {
	var b strings.Builder
	b.WriteString(v.label(v.Theme.UserLabel, msg))
	b.WriteString("\n")

	if msg.Pending {
		b.WriteString(v.Theme.PendingText.Render(msg.Content))
		return b.String()
	}

	b.WriteString(v.Theme.UserBubble.Render(msg.Content))
	if msg.MediaName != "" {
		b.WriteString("\n")
		b.WriteString(v.Theme.AttachmentNote.Render("📎 " + msg.MediaName + " (" + msg.MediaType + ")"))
	}
	return b.String()
}

func (v *MessageView) renderAssistant(msg *model.Message) string {
	var b strings.Builder
	b.WriteString(v.label(v.Theme.AssistantLabel, msg))
	b.WriteString("\n")
	b.WriteString(v.renderMarkdown(msg.Content))
	return b.String()
}

// renderMarkdown formats assistant content, falling back to the raw text
// when glamour is unavailable or fails.
func (v *MessageView) renderMarkdown(content string) string {
	if v.Markdown == nil {
		return content
	}
	out, err := v.Markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (v *MessageView) label(style lipgloss.Style, msg *model.Message) string {
	name := msg.Role.DisplayName()
	if msg.Role == model.RoleAssistant && msg.Persona != "" {
		if p, ok := model.PersonaByID(msg.Persona); ok {
			name = p.Icon + " " + p.Name
		}
	}
	line := style.Render(name)
	if v.ShowTimestamps && !msg.Timestamp.IsZero() {
		line += " " + v.Theme.Timestamp.Render(msg.Timestamp.Format("15:04:05"))
	}
	return line
}
