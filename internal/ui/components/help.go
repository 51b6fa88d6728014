// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/voxchat-tui/internal/commands"
	"github.com/jeranaias/voxchat-tui/internal/ui/styles"
)

// Help renders the command reference grouped by category.
func Help(theme *styles.Theme, registry *commands.Registry) string {
	var b strings.Builder
	b.WriteString(theme.ListTitle.Render("Commands"))
	b.WriteString("\n")

	byCategory := registry.ByCategory()
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		b.WriteString("\n")
		b.WriteString(theme.HelpText.Render(cat))
		b.WriteString("\n")
		for _, cmd := range byCategory[cat] {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			line := fmt.Sprintf("  %s  %s", theme.HelpCommand.Render(padRight(usage, 28)), theme.HelpText.Render(cmd.Description))
			if len(cmd.Aliases) > 0 {
				line += theme.ListItemMeta.Render(" (" + strings.Join(cmd.Aliases, ", ") + ")")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
