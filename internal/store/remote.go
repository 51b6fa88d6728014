// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// conversationRow mirrors the conversations table.
type conversationRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Persona   string    `json:"persona"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// conversationPatch carries the fields updated on an existing conversation.
type conversationPatch struct {
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// messageRow mirrors the messages table.
type messageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Persona        string    `json:"persona"`
	MediaName      string    `json:"media_name,omitempty"`
	MediaType      string    `json:"media_type,omitempty"`
	MediaPreview   string    `json:"media_preview,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// =============================================================================
// REMOTE CLIENT
// =============================================================================

// RemoteConfig holds remote store connection settings.
type RemoteConfig struct {
	// BaseURL is the store's base URL; table endpoints live under /rest/v1.
	BaseURL string

	// APIKey is sent as both the apikey header and the bearer token.
	APIKey string

	// Timeout per request (default: 15s).
	Timeout time.Duration
}

// RemoteClient talks to the REST conversation store. Conversations and
// messages live in two tables; rows are filtered with query parameters
// (eq., order=, limit=) in the PostgREST style.
type RemoteClient struct {
	config     RemoteConfig
	httpClient *http.Client
}

// NewRemoteClient creates a client for the remote store.
func NewRemoteClient(config RemoteConfig) *RemoteClient {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &RemoteClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// SaveConversation inserts the conversation row and its messages. The row is
// inserted first; if the messages then fail to persist, the conversation ID
// is returned alongside the error so the caller can retry with an update.
func (c *RemoteClient) SaveConversation(ctx context.Context, conv *model.Conversation) (string, error) {
	row := conversationRow{
		ID:        conv.ID,
		Title:     conv.Title,
		Persona:   conv.Persona,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if err := c.do(ctx, http.MethodPost, "/rest/v1/conversations", nil, row); err != nil {
		return "", &StoreError{Op: "save", ConversationID: conv.ID, Cause: err}
	}

	if err := c.insertMessages(ctx, conv); err != nil {
		return conv.ID, &StoreError{Op: "save messages", ConversationID: conv.ID, Cause: err}
	}
	return conv.ID, nil
}

// UpdateConversation replaces a conversation's messages and refreshes its
// title and timestamp. Replacement is delete-then-insert; there is no
// transactional guarantee across the two calls.
func (c *RemoteClient) UpdateConversation(ctx context.Context, conv *model.Conversation) error {
	params := url.Values{"conversation_id": {"eq." + conv.ID}}
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/messages", params, nil); err != nil {
		return &StoreError{Op: "update", ConversationID: conv.ID, Cause: err}
	}

	if err := c.insertMessages(ctx, conv); err != nil {
		return &StoreError{Op: "update", ConversationID: conv.ID, Cause: err}
	}

	patch := conversationPatch{Title: conv.Title, UpdatedAt: time.Now()}
	params = url.Values{"id": {"eq." + conv.ID}}
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/conversations", params, patch); err != nil {
		return &StoreError{Op: "update", ConversationID: conv.ID, Cause: err}
	}
	return nil
}

// LoadConversation fetches a conversation and its messages in creation order.
func (c *RemoteClient) LoadConversation(ctx context.Context, id string) (*model.Conversation, error) {
	params := url.Values{
		"id":    {"eq." + id},
		"limit": {"1"},
	}
	var convRows []conversationRow
	if err := c.get(ctx, "/rest/v1/conversations", params, &convRows); err != nil {
		return nil, &StoreError{Op: "load", ConversationID: id, Cause: err}
	}
	if len(convRows) == 0 {
		return nil, ErrConversationNotFound
	}

	params = url.Values{
		"conversation_id": {"eq." + id},
		"order":           {"created_at.asc"},
	}
	var msgRows []messageRow
	if err := c.get(ctx, "/rest/v1/messages", params, &msgRows); err != nil {
		return nil, &StoreError{Op: "load", ConversationID: id, Cause: err}
	}

	row := convRows[0]
	conv := &model.Conversation{
		ID:        row.ID,
		Title:     row.Title,
		Persona:   row.Persona,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, mr := range msgRows {
		conv.Messages = append(conv.Messages, &model.Message{
			ID:           mr.ID,
			Role:         model.Role(mr.Role),
			Content:      mr.Content,
			Persona:      mr.Persona,
			MediaName:    mr.MediaName,
			MediaType:    mr.MediaType,
			MediaPreview: mr.MediaPreview,
			Timestamp:    mr.CreatedAt,
		})
	}
	return conv, nil
}

// ListConversations returns summaries ordered by most recent update.
func (c *RemoteClient) ListConversations(ctx context.Context, limit int) ([]model.ConversationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{
		"order": {"updated_at.desc"},
		"limit": {strconv.Itoa(limit)},
	}
	var rows []conversationRow
	if err := c.get(ctx, "/rest/v1/conversations", params, &rows); err != nil {
		return nil, &StoreError{Op: "list", Cause: err}
	}

	summaries := make([]model.ConversationSummary, len(rows))
	for i, row := range rows {
		summaries[i] = model.ConversationSummary{
			ID:        row.ID,
			Title:     row.Title,
			Persona:   row.Persona,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return summaries, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *RemoteClient) DeleteConversation(ctx context.Context, id string) error {
	params := url.Values{"conversation_id": {"eq." + id}}
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/messages", params, nil); err != nil {
		return &StoreError{Op: "delete", ConversationID: id, Cause: err}
	}
	params = url.Values{"id": {"eq." + id}}
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/conversations", params, nil); err != nil {
		return &StoreError{Op: "delete", ConversationID: id, Cause: err}
	}
	return nil
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func (c *RemoteClient) insertMessages(ctx context.Context, conv *model.Conversation) error {
	msgs := conv.PersistableMessages()
	if len(msgs) == 0 {
		return nil
	}
	rows := make([]messageRow, len(msgs))
	for i, m := range msgs {
		rows[i] = messageRow{
			ID:             m.ID,
			ConversationID: conv.ID,
			Role:           m.Role.String(),
			Content:        m.Content,
			Persona:        m.Persona,
			MediaName:      m.MediaName,
			MediaType:      m.MediaType,
			MediaPreview:   m.MediaPreview,
			CreatedAt:      m.Timestamp,
		}
	}
	return c.do(ctx, http.MethodPost, "/rest/v1/messages", nil, rows)
}

// do sends a write request; body is JSON-encoded when non-nil.
func (c *RemoteClient) do(ctx context.Context, method, path string, params url.Values, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, params, reader)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(detail))
	}
	return nil
}

// get sends a read request and decodes the JSON array response into out.
func (c *RemoteClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *RemoteClient) newRequest(ctx context.Context, method, path string, params url.Values, body io.Reader) (*http.Request, error) {
	u := c.config.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
