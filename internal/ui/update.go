// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voxchat-tui/internal/chat"
	"github.com/jeranaias/voxchat-tui/internal/commands"
	"github.com/jeranaias/voxchat-tui/internal/ui/components"
)

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// sendResultMsg reports a completed text or media send.
type sendResultMsg struct {
	err error
}

// voiceResultMsg reports a completed voice flow.
type voiceResultMsg struct {
	err error
}

// tickMsg drives the recording indicator and status refresh.
type tickMsg time.Time

// tickInterval is the UI refresh cadence for live indicators.
const tickInterval = 150 * time.Millisecond

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		// Live indicators redraw on the tick; nothing else to do.
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if !m.thinking {
			return m, nil
		}
		return m, cmd

	case sendResultMsg:
		return m.handleSendResult(msg.err)

	case voiceResultMsg:
		return m.handleVoiceResult(msg.err)
	}

	if model, cmd, handled := m.handleCommandMsg(msg); handled {
		return model, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.orch.StopSpeaking()
		return m, tea.Quit

	case "ctrl+r":
		return m.toggleRecording()

	case "esc":
		if m.recording && m.voiceCancel != nil {
			m.voiceCancel()
			return m, nil
		}
		if m.orch.IsSpeaking() {
			m.orch.StopSpeaking()
			m.note = "Speech stopped"
			return m, nil
		}
		m.aside = ""
		m.refresh()
		return m, nil

	case "enter":
		return m.submit()

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit dispatches the current input line: a slash command or a chat
// message.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.aside = ""
	m.note = ""

	if commands.IsCommand(text) {
		return m.runCommand(text)
	}
	if m.thinking {
		m.note = "Still working on the previous message"
		return m, nil
	}

	m.thinking = true
	cmd := m.sendCmd(text)
	m.refresh()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) runCommand(text string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(text)
	if result.Command == nil {
		m.aside = m.theme.ErrorText.Render("Unknown command: " + result.CommandName + ". Try /help.")
		m.refresh()
		return m, nil
	}
	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		m.aside = m.theme.ErrorText.Render(err.Error())
		m.refresh()
		return m, nil
	}
	return m, result.Command.Handler(m.cmdCtx, result.Args)
}

// sendCmd runs the text send off the update loop.
func (m *Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.orch.Send(context.Background(), text)
		return sendResultMsg{err: err}
	}
}

func (m *Model) handleSendResult(err error) (tea.Model, tea.Cmd) {
	m.thinking = false
	if err != nil && !errors.Is(err, chat.ErrSuperseded) && !errors.Is(err, chat.ErrEmptyMessage) {
		m.logger.Error("send failed", "error", err)
	}
	m.refresh()
	return m, nil
}

// =============================================================================
// VOICE FLOW
// =============================================================================

// toggleRecording starts the voice flow, or stops the microphone so the
// captured utterance is transcribed and sent.
func (m *Model) toggleRecording() (tea.Model, tea.Cmd) {
	if m.recording {
		// Stopping hands the clip to the recognizer; the reply flow
		// continues in the in-flight voice command.
		m.recording = false
		m.thinking = true
		if m.session != nil {
			m.session.Stop()
		}
		return m, m.spinner.Tick
	}

	if !m.voiceAvailable() {
		m.aside = m.theme.ErrorText.Render("Voice input is not available on this system.")
		m.refresh()
		return m, nil
	}
	if m.thinking {
		m.note = "Still working on the previous message"
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.voiceCancel = cancel
	m.recording = true
	m.refresh()
	return m, func() tea.Msg {
		_, err := m.orch.SendVoice(ctx)
		return voiceResultMsg{err: err}
	}
}

func (m *Model) handleVoiceResult(err error) (tea.Model, tea.Cmd) {
	m.recording = false
	m.thinking = false
	if m.voiceCancel != nil {
		m.voiceCancel()
		m.voiceCancel = nil
	}
	if err != nil && !errors.Is(err, chat.ErrSuperseded) {
		m.note = chat.VoiceErrorMessage(err)
	}
	m.refresh()
	return m, nil
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// handleCommandMsg folds the command handler results into the view.
func (m *Model) handleCommandMsg(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case commands.ShowHelpMsg:
		m.aside = components.Help(m.theme, m.registry)

	case commands.NewChatMsg:
		m.note = "Started a new conversation"

	case commands.PersonaSwitchedMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render(msg.Err.Error())
		}

	case commands.SaveCompleteMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render("Save failed: " + msg.Err.Error())
		} else {
			m.note = "Saved as " + msg.ID
		}

	case commands.ConversationLoadedMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render("Load failed: " + msg.Err.Error())
		} else {
			m.note = "Loaded " + msg.ID
		}

	case commands.ConversationListMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render(msg.Err.Error())
		} else {
			m.aside = components.ConversationList(m.theme, msg.Items, msg.Query)
		}

	case commands.DeleteCompleteMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render("Delete failed: " + msg.Err.Error())
		} else {
			m.note = "Deleted " + msg.ID
		}

	case commands.ExportCompleteMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render("Export failed: " + msg.Err.Error())
		} else {
			m.note = "Exported to " + msg.Path
		}

	case commands.RecordToggleMsg:
		model, cmd := m.toggleRecording()
		return model, cmd, true

	case commands.SpeakStartedMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render(msg.Err.Error())
		}

	case commands.SpeakStoppedMsg:
		m.note = "Speech stopped"

	case commands.AttachmentSentMsg:
		if msg.Err != nil {
			m.aside = m.theme.ErrorText.Render(msg.Err.Error())
		}

	case commands.SystemMessageMsg:
		m.aside = m.theme.SystemMessage.Render(msg.Content)

	case commands.ErrorMsg:
		m.aside = m.theme.ErrorText.Render(msg.Title + ": " + msg.Message)

	default:
		return m, nil, false
	}

	m.refresh()
	return m, nil, true
}
