// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voxchat-tui/internal/chat"
	"github.com/jeranaias/voxchat-tui/internal/config"
	"github.com/jeranaias/voxchat-tui/internal/media"
	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help
	Description string

	// Usage shows argument syntax (e.g., "/persona <id>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines validation behavior
	Type ArgType

	// Description explains the argument
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of argument this is.
type ArgType int

const (
	ArgTypeString       ArgType = iota // Free-form string
	ArgTypeConversation                // Conversation ID from the store
	ArgTypePersona                     // Persona ID
	ArgTypeFile                        // File path
	ArgTypeEnum                        // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.commands {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Category:    "Navigation",
		Handler:     HandleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit voxchat",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	// Conversation
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversation",
		Handler:     HandleNew,
	})

	r.Register(&Command{
		Name:        "/persona",
		Aliases:     []string{"/p", "/mode"},
		Description: "Switch or show the assistant persona",
		Usage:       "/persona [beauty|writing|code|general]",
		Args: []ArgDef{
			{Name: "id", Required: false, Type: ArgTypePersona, Description: "Persona to switch to"},
		},
		Category: "Conversation",
		Handler:  HandlePersona,
	})

	r.Register(&Command{
		Name:        "/save",
		Aliases:     []string{"/s"},
		Description: "Save the current conversation",
		Category:    "Conversation",
		Handler:     HandleSave,
	})

	r.Register(&Command{
		Name:        "/load",
		Aliases:     []string{"/l"},
		Description: "Load a saved conversation",
		Usage:       "/load <conversation_id>",
		Args: []ArgDef{
			{Name: "conversation_id", Required: true, Type: ArgTypeConversation, Description: "ID of the conversation to load"},
		},
		Category: "Conversation",
		Handler:  HandleLoad,
	})

	r.Register(&Command{
		Name:        "/list",
		Aliases:     []string{"/ls", "/history"},
		Description: "List saved conversations",
		Category:    "Conversation",
		Handler:     HandleList,
	})

	r.Register(&Command{
		Name:        "/search",
		Description: "Search saved conversations",
		Usage:       "/search <query>",
		Args: []ArgDef{
			{Name: "query", Required: true, Type: ArgTypeString, Description: "Text to search for"},
		},
		Category: "Conversation",
		Handler:  HandleSearch,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/rm"},
		Description: "Delete a saved conversation",
		Usage:       "/delete <conversation_id>",
		Args: []ArgDef{
			{Name: "conversation_id", Required: true, Type: ArgTypeConversation, Description: "ID of the conversation to delete"},
		},
		Category: "Conversation",
		Handler:  HandleDelete,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the conversation to a file",
		Usage:       "/export [md|json|txt]",
		Args: []ArgDef{
			{Name: "format", Required: false, Type: ArgTypeEnum, Values: []string{"md", "json", "txt"}, Description: "Export format"},
		},
		Category: "Conversation",
		Handler:  HandleExport,
	})

	// Voice
	r.Register(&Command{
		Name:        "/record",
		Aliases:     []string{"/rec"},
		Description: "Start or stop voice recording",
		Category:    "Voice",
		Handler:     HandleRecord,
	})

	r.Register(&Command{
		Name:        "/speak",
		Description: "Speak the last reply aloud",
		Category:    "Voice",
		Handler:     HandleSpeak,
	})

	r.Register(&Command{
		Name:        "/stop",
		Description: "Stop speech output",
		Category:    "Voice",
		Handler:     HandleStop,
	})

	// Media
	r.Register(&Command{
		Name:        "/attach",
		Aliases:     []string{"/a", "/file"},
		Description: "Share a file with the assistant",
		Usage:       "/attach <path> [caption]",
		Args: []ArgDef{
			{Name: "path", Required: true, Type: ArgTypeFile, Description: "Path to the file"},
			{Name: "caption", Required: false, Type: ArgTypeString, Description: "Optional question about the file"},
		},
		Category: "Media",
		Handler:  HandleAttach,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
// All fields are optional and may be nil; handlers check before use.
type Context struct {
	// Config provides access to application configuration
	Config *config.Config

	// Chat is the conversation orchestrator
	Chat *chat.Orchestrator

	// Media loads file attachments
	Media *media.Loader

	// Recording reports whether a voice recording is in progress
	Recording func() bool
}

// NewContext creates a new command context with the given dependencies.
func NewContext(cfg *config.Config, orch *chat.Orchestrator, loader *media.Loader) *Context {
	return &Context{
		Config: cfg,
		Chat:   orch,
		Media:  loader,
	}
}

// Personas returns valid persona IDs for help output.
func (c *Context) Personas() []string {
	ids := make([]string, 0, 4)
	for _, p := range model.Personas() {
		ids = append(ids, p.ID)
	}
	return ids
}
