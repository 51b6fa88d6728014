// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/ui/styles"
	"github.com/jeranaias/voxchat-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Status describes the state shown in the bottom bar.
type Status struct {
	Persona model.Persona

	Recording     bool
	RecordElapsed time.Duration
	RecordLevel   float64

	Speaking bool
	Busy     bool

	// Note is a transient message shown instead of the shortcut hints.
	Note string
}

// StatusBar renders the bottom bar.
func StatusBar(theme *styles.Theme, s Status) string {
	left := theme.PersonaStyle(s.Persona.ID).Render(s.Persona.Icon + " " + s.Persona.ID)

	var middle string
	switch {
	case s.Recording:
		middle = theme.StatusRecording.Render(RecordingIndicator(s.RecordElapsed, s.RecordLevel))
	case s.Speaking:
		middle = theme.StatusSpeaking.Render("🔊 speaking")
	case s.Busy:
		middle = theme.StatusInfo.Render("thinking…")
	case s.Note != "":
		middle = theme.StatusInfo.Render(s.Note)
	default:
		middle = shortcuts(theme)
	}

	gap := theme.Width - lipgloss.Width(left) - lipgloss.Width(middle) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Render(left + strings.Repeat(" ", gap) + middle)
}

// shortcuts lists the key hints shown when nothing else is going on.
func shortcuts(theme *styles.Theme) string {
	pairs := [][2]string{
		{"/help", "commands"},
		{"ctrl+r", "record"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, theme.ShortcutKey.Render(p[0])+" "+theme.ShortcutText.Render(p[1]))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// RECORDING INDICATOR
// =============================================================================

// levelBarSegments is how many bars the level meter renders.
const levelBarSegments = 8

// RecordingIndicator renders the live recording readout: a red dot, the
// elapsed clock, and a level meter.
func RecordingIndicator(elapsed time.Duration, level float64) string {
	return "● REC " + util.FormatClock(elapsed.Milliseconds()) + " " + LevelBars(level)
}

// LevelBars renders an input level in [0, 1] as a fixed-width bar meter.
func LevelBars(level float64) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level*levelBarSegments + 0.5)
	var b strings.Builder
	for i := 0; i < levelBarSegments; i++ {
		if i < filled {
			b.WriteString("▮")
		} else {
			b.WriteString("▯")
		}
	}
	return b.String()
}
