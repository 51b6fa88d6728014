// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/ui/styles"
)

// maxTitleWidth bounds conversation titles in list output.
const maxTitleWidth = 40

// ConversationList renders saved conversation summaries for the transcript.
// The query is non-empty for search results.
func ConversationList(theme *styles.Theme, items []model.ConversationSummary, query string) string {
	var b strings.Builder

	title := "Saved conversations"
	if query != "" {
		title = fmt.Sprintf("Search results for %q", query)
	}
	b.WriteString(theme.ListTitle.Render(title))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(theme.ListItemMeta.Render("  (none)"))
		return b.String()
	}

	for _, item := range items {
		name := item.Title
		if name == "" {
			name = "(untitled)"
		}
		name = runewidth.Truncate(name, maxTitleWidth, "…")

		b.WriteString("  ")
		b.WriteString(theme.ListItem.Render(name))
		b.WriteString(" ")
		b.WriteString(theme.ListItemMeta.Render(fmt.Sprintf(
			"%s · %d messages · %s · %s",
			item.ID, item.MessageCount, item.Persona,
			item.UpdatedAt.Format("2006-01-02 15:04"),
		)))
		b.WriteString("\n")
	}
	b.WriteString(theme.ListItemMeta.Render("Use /load <id> to resume a conversation."))
	return b.String()
}
