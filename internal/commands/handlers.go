// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voxchat-tui/internal/export"
	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application state.

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct{}

// NewChatMsg indicates a fresh conversation was started.
type NewChatMsg struct{}

// PersonaSwitchedMsg indicates a persona change completed.
type PersonaSwitchedMsg struct {
	Persona model.Persona
	Err     error
}

// SaveCompleteMsg indicates save completion.
type SaveCompleteMsg struct {
	ID  string
	Err error
}

// ConversationLoadedMsg indicates load completion.
type ConversationLoadedMsg struct {
	ID  string
	Err error
}

// ConversationListMsg carries conversation summaries for display. Query is
// set when the list came from a search.
type ConversationListMsg struct {
	Items []model.ConversationSummary
	Query string
	Err   error
}

// DeleteCompleteMsg indicates delete completion.
type DeleteCompleteMsg struct {
	ID  string
	Err error
}

// ExportCompleteMsg indicates export completion.
type ExportCompleteMsg struct {
	Path string
	Err  error
}

// RecordToggleMsg asks the UI to start or stop voice recording. The UI owns
// the microphone session, so the toggle happens there.
type RecordToggleMsg struct{}

// SpeakStartedMsg indicates speech output was requested.
type SpeakStartedMsg struct {
	Err error
}

// SpeakStoppedMsg indicates speech output was halted.
type SpeakStoppedMsg struct{}

// AttachmentSentMsg indicates a media flow completed.
type AttachmentSentMsg struct {
	Reply *model.Message
	Err   error
}

// SystemMessageMsg adds an informational note to the chat view.
type SystemMessageMsg struct {
	Content string
}

// ErrorMsg indicates a command failed before doing anything.
type ErrorMsg struct {
	Title   string
	Message string
}

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

// HandleHelp shows help information.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowHelpMsg{}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// =============================================================================
// CONVERSATION HANDLERS
// =============================================================================

// HandleNew starts a new conversation.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	ctx.Chat.NewChat()
	return func() tea.Msg {
		return NewChatMsg{}
	}
}

// HandlePersona switches the assistant persona, or lists the available
// personas when called without arguments.
func HandlePersona(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}

	if len(args) == 0 {
		current := ctx.Chat.Persona()
		var sb strings.Builder
		sb.WriteString("Available personas:\n")
		for _, p := range model.Personas() {
			marker := "  "
			if p.ID == current.ID {
				marker = "* "
			}
			sb.WriteString(marker + p.ID + " - " + p.Name + ": " + p.Description + "\n")
		}
		msg := sb.String()
		return func() tea.Msg {
			return SystemMessageMsg{Content: msg}
		}
	}

	if _, err := ctx.Chat.SwitchPersona(strings.ToLower(args[0])); err != nil {
		return func() tea.Msg {
			return PersonaSwitchedMsg{Err: err}
		}
	}
	return func() tea.Msg {
		return PersonaSwitchedMsg{Persona: ctx.Chat.Persona()}
	}
}

// HandleSave persists the current conversation.
func HandleSave(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	orch := ctx.Chat
	return func() tea.Msg {
		id, err := orch.Save(context.Background())
		return SaveCompleteMsg{ID: id, Err: err}
	}
}

// HandleLoad loads a saved conversation. Without an ID it lists instead.
func HandleLoad(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	if len(args) == 0 {
		return HandleList(ctx, args)
	}

	orch := ctx.Chat
	id := args[0]
	return func() tea.Msg {
		_, err := orch.Load(context.Background(), id)
		return ConversationLoadedMsg{ID: id, Err: err}
	}
}

// HandleList lists saved conversations.
func HandleList(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	orch := ctx.Chat
	return func() tea.Msg {
		items, err := orch.List(context.Background(), 50)
		return ConversationListMsg{Items: items, Err: err}
	}
}

// HandleSearch searches saved conversations.
func HandleSearch(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{Title: "Search", Message: "Usage: /search <query>"}
		}
	}

	orch := ctx.Chat
	query := strings.Join(args, " ")
	return func() tea.Msg {
		items, err := orch.Search(context.Background(), query, 20)
		return ConversationListMsg{Items: items, Query: query, Err: err}
	}
}

// HandleDelete removes a saved conversation.
func HandleDelete(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{Title: "Delete", Message: "Usage: /delete <conversation_id>"}
		}
	}

	orch := ctx.Chat
	id := args[0]
	return func() tea.Msg {
		err := orch.Delete(context.Background(), id)
		return DeleteCompleteMsg{ID: id, Err: err}
	}
}

// HandleExport writes the conversation to a file in the chosen format.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}

	format := export.FormatMarkdown
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "md", "markdown":
			format = export.FormatMarkdown
		case "json":
			format = export.FormatJSON
		case "txt", "text":
			format = export.FormatText
		default:
			bad := args[0]
			return func() tea.Msg {
				return ErrorMsg{Title: "Export", Message: "Unknown format: " + bad + " (expected md, json, or txt)"}
			}
		}
	}

	conv := ctx.Chat.Conversation()
	return func() tea.Msg {
		path, err := export.ToFile(conv, format, nil)
		return ExportCompleteMsg{Path: path, Err: err}
	}
}

// =============================================================================
// VOICE HANDLERS
// =============================================================================

// HandleRecord toggles voice recording.
func HandleRecord(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return RecordToggleMsg{}
	}
}

// HandleSpeak voices the last assistant reply.
func HandleSpeak(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	orch := ctx.Chat
	return func() tea.Msg {
		return SpeakStartedMsg{Err: orch.SpeakLastReply(nil)}
	}
}

// HandleStop halts speech output.
func HandleStop(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil {
		return nil
	}
	ctx.Chat.StopSpeaking()
	return func() tea.Msg {
		return SpeakStoppedMsg{}
	}
}

// =============================================================================
// MEDIA HANDLERS
// =============================================================================

// HandleAttach loads a file and sends it through the media flow.
func HandleAttach(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Chat == nil || ctx.Media == nil {
		return nil
	}
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{Title: "Attach", Message: "Usage: /attach <path> [caption]"}
		}
	}

	orch := ctx.Chat
	loader := ctx.Media
	path := args[0]
	caption := strings.Join(args[1:], " ")
	return func() tea.Msg {
		att, err := loader.Load(path)
		if err != nil {
			return AttachmentSentMsg{Err: err}
		}
		reply, err := orch.SendMedia(context.Background(), att, caption)
		return AttachmentSentMsg{Reply: reply, Err: err}
	}
}
