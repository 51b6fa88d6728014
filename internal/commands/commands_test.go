// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voxchat-tui/internal/chat"
	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeStore struct {
	conversations map[string]*model.Conversation
	deleted       []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{conversations: map[string]*model.Conversation{}}
}

func (f *fakeStore) Save(ctx context.Context, conv *model.Conversation) (string, error) {
	f.conversations[conv.ID] = conv
	return conv.ID, nil
}

func (f *fakeStore) Update(ctx context.Context, conv *model.Conversation) error {
	f.conversations[conv.ID] = conv
	return nil
}

func (f *fakeStore) Load(ctx context.Context, id string) (*model.Conversation, error) {
	if conv, ok := f.conversations[id]; ok {
		return conv, nil
	}
	return nil, assert.AnError
}

func (f *fakeStore) List(ctx context.Context, limit int) ([]model.ConversationSummary, error) {
	var out []model.ConversationSummary
	for id, conv := range f.conversations {
		out = append(out, model.ConversationSummary{ID: id, Title: conv.Title})
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	delete(f.conversations, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, query string, limit int) ([]model.ConversationSummary, error) {
	return []model.ConversationSummary{{ID: "conv_found", Title: query}}, nil
}

func testContext() (*Context, *fakeStore) {
	store := newFakeStore()
	orch := chat.New(chat.Config{Store: store})
	return NewContext(nil, orch, nil), store
}

// =============================================================================
// PARSER
// =============================================================================

func TestParseNonCommand(t *testing.T) {
	parser := NewParser(NewRegistry())
	result := parser.Parse("hello world")
	assert.False(t, result.IsCommand)
}

func TestParseKnownCommand(t *testing.T) {
	parser := NewParser(NewRegistry())

	result := parser.Parse("/load conv_abc123")
	assert.True(t, result.IsCommand)
	require.NotNil(t, result.Command)
	assert.Equal(t, "/load", result.Command.Name)
	assert.Equal(t, []string{"conv_abc123"}, result.Args)
	assert.Equal(t, "conv_abc123", result.RawArgs)
}

func TestParseUnknownCommand(t *testing.T) {
	parser := NewParser(NewRegistry())
	result := parser.Parse("/bogus")
	assert.True(t, result.IsCommand)
	assert.Nil(t, result.Command)
	assert.Equal(t, "/bogus", result.CommandName)
}

func TestParseQuotedArguments(t *testing.T) {
	parser := NewParser(NewRegistry())
	result := parser.Parse(`/attach "my photo.png" what is this?`)
	require.NotNil(t, result.Command)
	assert.Equal(t, []string{"my photo.png", "what", "is", "this?"}, result.Args)
}

func TestParseAliases(t *testing.T) {
	parser := NewParser(NewRegistry())

	for alias, want := range map[string]string{
		"/n":       "/new",
		"/p":       "/persona",
		"/mode":    "/persona",
		"/s":       "/save",
		"/ls":      "/list",
		"/rec":     "/record",
		"/q":       "/quit",
		"/history": "/list",
	} {
		result := parser.Parse(alias)
		require.NotNil(t, result.Command, "alias %s not registered", alias)
		assert.Equal(t, want, result.Command.Name, "alias %s", alias)
	}
}

func TestValidateArgs(t *testing.T) {
	registry := NewRegistry()

	load := registry.Get("/load")
	assert.Error(t, ValidateArgs(load, nil))
	assert.NoError(t, ValidateArgs(load, []string{"conv_abc"}))

	exportCmd := registry.Get("/export")
	assert.NoError(t, ValidateArgs(exportCmd, nil))
	assert.NoError(t, ValidateArgs(exportCmd, []string{"json"}))
	assert.Error(t, ValidateArgs(exportCmd, []string{"docx"}))
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("/help"))
	assert.True(t, IsCommand("  /help  "))
	assert.False(t, IsCommand("help"))
	assert.Equal(t, "/load", ExtractCommandName("/load conv_abc"))
}

// =============================================================================
// HANDLERS
// =============================================================================

func TestHandleNew(t *testing.T) {
	ctx, _ := testContext()
	before := ctx.Chat.ConversationID()

	cmd := HandleNew(ctx, nil)
	require.NotNil(t, cmd)
	assert.IsType(t, NewChatMsg{}, cmd())
	assert.NotEqual(t, before, ctx.Chat.ConversationID())
}

func TestHandlePersonaSwitch(t *testing.T) {
	ctx, _ := testContext()

	cmd := HandlePersona(ctx, []string{"code"})
	require.NotNil(t, cmd)
	msg := cmd()
	switched, ok := msg.(PersonaSwitchedMsg)
	require.True(t, ok)
	assert.NoError(t, switched.Err)
	assert.Equal(t, "code", switched.Persona.ID)

	msg = HandlePersona(ctx, []string{"astrology"})()
	switched, ok = msg.(PersonaSwitchedMsg)
	require.True(t, ok)
	assert.Error(t, switched.Err)
}

func TestHandlePersonaListsWithoutArgs(t *testing.T) {
	ctx, _ := testContext()
	msg := HandlePersona(ctx, nil)()
	sysMsg, ok := msg.(SystemMessageMsg)
	require.True(t, ok)
	assert.Contains(t, sysMsg.Content, "general")
	assert.Contains(t, sysMsg.Content, "Code Helper")
}

func TestHandleSaveAndDelete(t *testing.T) {
	ctx, store := testContext()

	msg := HandleSave(ctx, nil)()
	saveMsg, ok := msg.(SaveCompleteMsg)
	require.True(t, ok)
	require.NoError(t, saveMsg.Err)
	assert.Contains(t, store.conversations, saveMsg.ID)

	msg = HandleDelete(ctx, []string{saveMsg.ID})()
	delMsg, ok := msg.(DeleteCompleteMsg)
	require.True(t, ok)
	assert.NoError(t, delMsg.Err)
	assert.Equal(t, []string{saveMsg.ID}, store.deleted)
}

func TestHandleLoadWithoutArgsLists(t *testing.T) {
	ctx, _ := testContext()
	msg := HandleLoad(ctx, nil)()
	_, ok := msg.(ConversationListMsg)
	assert.True(t, ok)
}

func TestHandleSearch(t *testing.T) {
	ctx, _ := testContext()

	msg := HandleSearch(ctx, []string{"golang", "loops"})()
	listMsg, ok := msg.(ConversationListMsg)
	require.True(t, ok)
	assert.Equal(t, "golang loops", listMsg.Query)
	require.Len(t, listMsg.Items, 1)

	msg = HandleSearch(ctx, nil)()
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok)
}

func TestHandleRecordEmitsToggle(t *testing.T) {
	ctx, _ := testContext()
	msg := HandleRecord(ctx, nil)()
	assert.IsType(t, RecordToggleMsg{}, msg)
}

func TestRegistryCategories(t *testing.T) {
	registry := NewRegistry()
	byCat := registry.ByCategory()
	assert.NotEmpty(t, byCat["Conversation"])
	assert.NotEmpty(t, byCat["Voice"])
	assert.NotEmpty(t, byCat["Navigation"])
}
