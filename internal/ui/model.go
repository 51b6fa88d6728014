// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the terminal interface: the transcript viewport,
// the input line, slash command dispatch, and the voice record toggle.
package ui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voxchat-tui/internal/audio"
	"github.com/jeranaias/voxchat-tui/internal/chat"
	"github.com/jeranaias/voxchat-tui/internal/commands"
	"github.com/jeranaias/voxchat-tui/internal/config"
	"github.com/jeranaias/voxchat-tui/internal/ui/components"
	"github.com/jeranaias/voxchat-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Options carries the dependencies for the UI model.
type Options struct {
	Config       *config.Config
	Orchestrator *chat.Orchestrator
	Commands     *commands.Registry
	CommandCtx   *commands.Context

	// Session is the microphone session, nil when no capture backend is
	// available. The UI reads it for the recording indicator and stops it
	// on the record toggle.
	Session *audio.Session

	Logger *slog.Logger
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	cfg    *config.Config
	orch   *chat.Orchestrator
	logger *slog.Logger

	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context

	session *audio.Session

	theme    *styles.Theme
	msgView  *components.MessageView
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	// thinking is true while a reply or transcription is in flight.
	thinking bool

	// recording is true while the microphone is open.
	recording bool

	// voiceCancel aborts the in-flight voice flow.
	voiceCancel func()

	// aside is transient output shown under the transcript: help, lists,
	// command errors. Cleared by the next submission.
	aside string

	// note is a short status bar message.
	note string

	quitting bool
}

// New creates the chat UI model.
func New(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Type a message, or /help for commands"
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:      opts.Config,
		orch:     opts.Orchestrator,
		logger:   opts.Logger,
		registry: opts.Commands,
		parser:   commands.NewParser(opts.Commands),
		cmdCtx:   opts.CommandCtx,
		session:  opts.Session,
		input:    input,
		spinner:  sp,
	}
	if m.cmdCtx != nil {
		m.cmdCtx.Recording = func() bool { return m.recording }
	}
	return m
}

// Init starts the input cursor blink and the status tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

// voiceAvailable reports whether the record toggle can do anything.
func (m *Model) voiceAvailable() bool {
	return m.session != nil
}

// darkBackground resolves the configured theme to a dark flag.
func (m *Model) darkBackground() bool {
	if m.cfg == nil || m.cfg.UI.Theme == "" {
		return styles.DetectDark()
	}
	return m.cfg.UI.Theme == "dark"
}

// layout rebuilds the theme and size-dependent components. Called on the
// first window size message and on every resize.
func (m *Model) layout(width, height int) {
	m.width = width
	m.height = height

	if m.theme == nil {
		m.theme = styles.NewTheme(width, height, m.darkBackground())
	} else {
		m.theme.Resize(width, height)
	}

	showTimestamps := m.cfg != nil && m.cfg.UI.ShowTimestamps
	m.msgView = &components.MessageView{
		Theme:          m.theme,
		Markdown:       components.NewMarkdownRenderer(max(width-4, 20), m.theme.IsDark),
		ShowTimestamps: showTimestamps,
	}

	viewportHeight := max(height-chromeLines, 3)
	if !m.ready {
		m.viewport = viewport.New(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = max(width-8, 10)
	m.refresh()
}

// chromeLines is the vertical space taken by everything that is not the
// transcript: header, input box with its border, and the status bar.
const chromeLines = 5
