// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/jeranaias/voxchat-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full screen: header, transcript, input, status bar.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready || m.theme == nil {
		return "Starting VoxChat..."
	}

	var b strings.Builder
	b.WriteString(components.Header(m.theme, m.orch.Persona(), m.orch.IsSaved()))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(components.StatusBar(m.theme, m.status()))
	return b.String()
}

// renderInput draws the input box, with the spinner replacing the prompt
// while a reply is in flight.
func (m *Model) renderInput() string {
	view := m.input.View()
	if m.thinking {
		view = m.spinner.View() + " " + view
	}
	return m.theme.InputBox.Render(view)
}

// status assembles the status bar state from the orchestrator and the
// recording session.
func (m *Model) status() components.Status {
	s := components.Status{
		Persona:  m.orch.Persona(),
		Speaking: m.orch.IsSpeaking(),
		Busy:     m.thinking,
		Note:     m.note,
	}
	if m.recording && m.session != nil {
		s.Recording = true
		s.RecordElapsed = m.session.Elapsed()
		s.RecordLevel = m.session.Level()
	}
	return s
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refresh rebuilds the viewport content from the conversation and pins the
// view to the newest message.
func (m *Model) refresh() {
	if !m.ready || m.msgView == nil {
		return
	}

	var b strings.Builder
	for i, msg := range m.orch.Messages() {
		if i > 0 {
			b.WriteString(m.messageGap())
		}
		b.WriteString(m.msgView.Render(msg))
		b.WriteString("\n")
	}
	if m.aside != "" {
		b.WriteString(m.messageGap())
		b.WriteString(m.aside)
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// messageGap is the spacing between transcript entries, reduced in compact
// mode.
func (m *Model) messageGap() string {
	if m.cfg != nil && m.cfg.UI.CompactMode {
		return ""
	}
	return "\n"
}
