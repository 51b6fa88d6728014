// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
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

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(title)))
		sb.WriteString(fmt.Sprintf("persona: %s\n", conv.Persona))
		sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", conv.UpdatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: voxchat-tui\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("- **Persona**: %s\n", personaName(conv.Persona)))
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", conv.CreatedAt.Format("2006-01-02 15:04")))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(messages)))
		sb.WriteString("\n---\n\n")
	}

	for i, msg := range messages {
		label := msg.Role.DisplayName()
		if msg.IsVoice() {
			label += " (voice)"
		}
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, msg.Timestamp.Format("15:04:05")))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		if msg.HasMedia() {
			sb.WriteString(fmt.Sprintf("> Attachment: %s (%s)\n\n", msg.MediaName, msg.MediaType))
		}

		if i < len(messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// escapeYAML quotes a value when it would break frontmatter parsing.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#[]{}|>&*!%\"'") {
		return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}
