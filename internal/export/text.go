// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// TEXT EXPORTER
// =============================================================================

// TextExporter exports conversations to plain text.
type TextExporter struct {
	options *Options
}

// Export converts a conversation to plain text.
func (e *TextExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	messages := conv.PersistableMessages()
	if len(messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	title := conv.Title
	if title == "" {
		title = conv.DeriveTitle()
	}

	var sb strings.Builder
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	if e.options.IncludeMetadata {
		sb.WriteString("Persona: " + personaName(conv.Persona) + "\n")
		sb.WriteString("Created: " + conv.CreatedAt.Format("2006-01-02 15:04") + "\n\n")
	}

	for _, msg := range messages {
		label := msg.Role.DisplayName()
		if e.options.IncludeTimestamps {
			label += " [" + msg.Timestamp.Format("15:04:05") + "]"
		}
		sb.WriteString(label + ":\n")
		sb.WriteString(msg.Content + "\n")
		if msg.HasMedia() {
			sb.WriteString("(attachment: " + msg.MediaName + ")\n")
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}
