// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/ui/styles"
)

// AppName is the title shown in the header.
const AppName = "VoxChat"

// Header renders the top bar: app title on the left, the active persona on
// the right.
func Header(theme *styles.Theme, persona model.Persona, saved bool) string {
	title := theme.HeaderTitle.Render(AppName)

	label := persona.Icon + " " + persona.Name
	if !saved {
		label += " •"
	}
	right := theme.HeaderPersona.Foreground(styles.PersonaAccent(persona.ID)).Render(label)

	gap := theme.Width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.Header.Render(title + lipgloss.NewStyle().Width(gap).Render("") + right)
}
