// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voxchat-tui/internal/chat"
	"github.com/jeranaias/voxchat-tui/internal/commands"
	"github.com/jeranaias/voxchat-tui/internal/config"
)

// =============================================================================
// FIXTURES
// =============================================================================

type stubGen struct {
	reply string
}

func (g *stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.reply, nil
}

func (g *stubGen) GenerateWithMedia(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	return g.reply, nil
}

func testModel(t *testing.T) *Model {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := chat.New(chat.Config{
		Generator: &stubGen{reply: "stub reply"},
		Logger:    logger,
	})
	cfg := config.Default()
	registry := commands.NewRegistry()

	m := New(Options{
		Config:       cfg,
		Orchestrator: orch,
		Commands:     registry,
		CommandCtx:   commands.NewContext(cfg, orch, nil),
		Logger:       logger,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// drive feeds a command's messages back through Update until none remain.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drive(t, m, c)
		}
		return
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		return
	}
	_, next := m.Update(msg)
	drive(t, m, next)
}

func typeAndEnter(t *testing.T, m *Model, text string) {
	t.Helper()
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, m, cmd)
}

// =============================================================================
// TESTS
// =============================================================================

func TestViewShowsWelcome(t *testing.T) {
	m := testModel(t)
	view := m.View()
	assert.Contains(t, view, "VoxChat")
	require.NotEmpty(t, m.orch.Messages())
	assert.Contains(t, view, "Welcome to voxchat!")
}

func TestSendMessageAppendsReply(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "what's the weather")

	assert.False(t, m.thinking)
	view := m.View()
	assert.Contains(t, view, "what's the weather")
	assert.Contains(t, view, "stub reply")
	assert.Empty(t, m.input.Value())
}

func TestPersonaCommandSwitches(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "/persona code")
	assert.Equal(t, "code", m.orch.Persona().ID)
}

func TestUnknownCommandShowsError(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "/frobnicate")
	assert.Contains(t, m.aside, "Unknown command")
	assert.Contains(t, m.View(), "Unknown command")
}

func TestUnknownPersonaShowsError(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "/persona pirate")
	assert.NotEmpty(t, m.aside)
	assert.Equal(t, "general", m.orch.Persona().ID)
}

func TestHelpCommandShowsReference(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "/help")
	assert.Contains(t, m.aside, "/export")
	assert.Contains(t, m.View(), "/record")
}

func TestNewChatCommandResetsTranscript(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "hello")
	typeAndEnter(t, m, "/new")
	assert.Len(t, m.orch.Messages(), 1)
	assert.Contains(t, m.note, "new conversation")
}

func TestRecordUnavailableWithoutSession(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	drive(t, m, cmd)
	assert.False(t, m.recording)
	assert.Contains(t, m.aside, "not available")
}

func TestSubmitClearsAside(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "/help")
	require.NotEmpty(t, m.aside)
	typeAndEnter(t, m, "hello again")
	assert.Empty(t, m.aside)
}

func TestEscClearsAside(t *testing.T) {
	m := testModel(t)
	typeAndEnter(t, m, "/help")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.aside)
}
