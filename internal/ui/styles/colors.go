// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the color palette and theme for the terminal UI.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

var (
	// Purple is the primary brand accent.
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// Cyan is the secondary accent, used for links and highlights.
	Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

	// Emerald marks success states and the code persona.
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

	// Rose marks errors, recording, and the beauty persona.
	Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

	// Amber marks warnings and the writing persona.
	Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
)

// =============================================================================
// SURFACE COLORS
// =============================================================================

var (
	// Surface is the main background tone.
	Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1B2E"}

	// SurfaceRaised is used for bubbles and panels.
	SurfaceRaised = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#2A2640"}

	// SurfaceBorder outlines panels and the input box.
	SurfaceBorder = lipgloss.AdaptiveColor{Light: "#D4D4D8", Dark: "#3F3A5C"}
)

// =============================================================================
// TEXT COLORS
// =============================================================================

var (
	// TextPrimary is the main foreground.
	TextPrimary = lipgloss.AdaptiveColor{Light: "#18181B", Dark: "#E4E1F5"}

	// TextSecondary is for labels and metadata.
	TextSecondary = lipgloss.AdaptiveColor{Light: "#52525B", Dark: "#A8A3C4"}

	// TextMuted is for timestamps, placeholders, and hints.
	TextMuted = lipgloss.AdaptiveColor{Light: "#A1A1AA", Dark: "#6B6589"}
)

// =============================================================================
// PERSONA ACCENTS
// =============================================================================

// PersonaAccent returns the accent color for a persona ID. Unknown personas
// fall back to the brand purple.
func PersonaAccent(id string) lipgloss.AdaptiveColor {
	switch id {
	case "beauty":
		return Rose
	case "writing":
		return Amber
	case "code":
		return Emerald
	case "general":
		return Cyan
	default:
		return Purple
	}
}
