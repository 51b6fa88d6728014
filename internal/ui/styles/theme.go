// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles every style the UI renders with. Build one with NewTheme and
// call Resize when the terminal size changes.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Dimensions
	Width  int
	Height int

	// Header
	Header        lipgloss.Style
	HeaderTitle   lipgloss.Style
	HeaderPersona lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemMessage  lipgloss.Style
	PendingText    lipgloss.Style
	Timestamp      lipgloss.Style
	AttachmentNote lipgloss.Style

	// Input
	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style
	Placeholder lipgloss.Style

	// Status bar
	StatusBar       lipgloss.Style
	StatusPersona   lipgloss.Style
	StatusRecording lipgloss.Style
	StatusSpeaking  lipgloss.Style
	StatusInfo      lipgloss.Style
	ShortcutKey     lipgloss.Style
	ShortcutText    lipgloss.Style

	// Overlays
	ListTitle    lipgloss.Style
	ListItem     lipgloss.Style
	ListItemMeta lipgloss.Style
	HelpCommand  lipgloss.Style
	HelpText     lipgloss.Style
	ErrorText    lipgloss.Style
}

// NewTheme builds the theme for the given terminal size. The dark flag
// normally comes from configuration; background detection is used when the
// caller passes auto.
func NewTheme(width, height int, dark bool) *Theme {
	t := &Theme{
		IsDark:       dark,
		ColorProfile: termenv.ColorProfile(),
		Width:        width,
		Height:       height,
	}
	t.build()
	return t
}

// DetectDark reports whether the terminal has a dark background.
func DetectDark() bool {
	return termenv.HasDarkBackground()
}

// Resize rebuilds width-dependent styles.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
	t.build()
}

func (t *Theme) build() {
	// Header
	t.Header = lipgloss.NewStyle().
		Width(t.Width).
		Padding(0, 1).
		Background(SurfaceRaised).
		Foreground(TextPrimary)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.HeaderPersona = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.SystemMessage = lipgloss.NewStyle().
		Italic(true).
		Foreground(TextMuted)
	t.PendingText = lipgloss.NewStyle().
		Italic(true).
		Foreground(TextMuted)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.AttachmentNote = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Input
	t.InputBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SurfaceBorder).
		Padding(0, 1).
		Width(max(t.Width-2, 20))
	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Width(t.Width).
		Padding(0, 1).
		Background(SurfaceRaised).
		Foreground(TextSecondary)
	t.StatusPersona = lipgloss.NewStyle().
		Bold(true)
	t.StatusRecording = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)
	t.StatusSpeaking = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)
	t.StatusInfo = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)
	t.ShortcutText = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Overlays
	t.ListTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.ListItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ListItemMeta = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.HelpCommand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HelpText = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.ErrorText = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)
}

// PersonaStyle returns the status style tinted with a persona's accent.
func (t *Theme) PersonaStyle(personaID string) lipgloss.Style {
	return t.StatusPersona.Foreground(PersonaAccent(personaID))
}
