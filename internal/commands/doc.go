// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
//
// This package handles parsing and executing slash commands in the chat
// interface. Handlers return Bubble Tea commands that either run the
// operation directly against the orchestrator or emit a message for the
// UI layer to act on.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Parser: Parses input into command name and arguments
//   - Context: Dependencies available to handlers
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /new: Start a new conversation
//   - /persona: Switch assistant persona
//   - /save, /load, /list, /search, /delete: Conversation persistence
//   - /record: Toggle voice recording
//   - /speak, /stop: Speech output control
//   - /attach: Share a file with the assistant
//   - /export: Export conversation to a file
package commands
