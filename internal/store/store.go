// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides conversation persistence for voxchat: a remote
// REST store as the source of truth, mirrored into a local sqlite database
// for offline listing and loading.
package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jeranaias/voxchat-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// StoreError wraps a persistence failure with the operation and conversation
// it occurred on.
type StoreError struct {
	Op             string
	ConversationID string
	Cause          error
}

func (e *StoreError) Error() string {
	msg := "store " + e.Op + " failed"
	if e.ConversationID != "" {
		msg += " for " + e.ConversationID
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ErrConversationNotFound is returned when a conversation does not exist.
var ErrConversationNotFound = errors.New("conversation not found")

// =============================================================================
// STORE FACADE
// =============================================================================

// Store combines the remote REST store with the local sqlite mirror.
// Writes go to the remote first; on success the mirror is refreshed. Reads
// prefer the remote and fall back to the mirror when it is unreachable.
// With no remote configured the mirror alone serves all operations.
type Store struct {
	remote *RemoteClient // nil when no remote is configured
	local  *LocalDB      // nil when the mirror could not be opened
	logger *slog.Logger
}

// New creates a Store. Either client may be nil; at least one must be set.
func New(remote *RemoteClient, local *LocalDB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{remote: remote, local: local, logger: logger}
}

// HasRemote reports whether a remote store is configured.
func (s *Store) HasRemote() bool {
	return s.remote != nil
}

// Save persists a new conversation and returns its ID. The title is derived
// from the first user message. When the conversation row is created but the
// messages fail to persist, the ID is returned alongside the error so the
// caller can retry with Update.
func (s *Store) Save(ctx context.Context, conv *model.Conversation) (string, error) {
	conv.Title = conv.DeriveTitle()

	if s.remote != nil {
		id, err := s.remote.SaveConversation(ctx, conv)
		if err != nil {
			return id, err
		}
		s.mirror(conv)
		return id, nil
	}

	if s.local == nil {
		return "", &StoreError{Op: "save", Cause: errors.New("no store configured")}
	}
	if err := s.local.Upsert(conv); err != nil {
		return "", err
	}
	return conv.ID, nil
}

// Update replaces a saved conversation's messages and refreshes its title
// and timestamp.
func (s *Store) Update(ctx context.Context, conv *model.Conversation) error {
	conv.Title = conv.DeriveTitle()

	if s.remote != nil {
		if err := s.remote.UpdateConversation(ctx, conv); err != nil {
			return err
		}
		s.mirror(conv)
		return nil
	}

	if s.local == nil {
		return &StoreError{Op: "update", ConversationID: conv.ID, Cause: errors.New("no store configured")}
	}
	return s.local.Upsert(conv)
}

// Load fetches a conversation's messages. A missing conversation returns
// ErrConversationNotFound.
func (s *Store) Load(ctx context.Context, id string) (*model.Conversation, error) {
	if s.remote != nil {
		conv, err := s.remote.LoadConversation(ctx, id)
		if err == nil {
			return conv, nil
		}
		if errors.Is(err, ErrConversationNotFound) || s.local == nil {
			return nil, err
		}
		s.logger.Warn("remote load failed, falling back to local mirror", "conversation_id", id, "error", err)
	}

	if s.local == nil {
		return nil, &StoreError{Op: "load", ConversationID: id, Cause: errors.New("no store configured")}
	}
	return s.local.Load(id)
}

// List returns conversation summaries, most recently updated first.
func (s *Store) List(ctx context.Context, limit int) ([]model.ConversationSummary, error) {
	if s.remote != nil {
		summaries, err := s.remote.ListConversations(ctx, limit)
		if err == nil {
			return summaries, nil
		}
		if s.local == nil {
			return nil, err
		}
		s.logger.Warn("remote list failed, falling back to local mirror", "error", err)
	}

	if s.local == nil {
		return nil, &StoreError{Op: "list", Cause: errors.New("no store configured")}
	}
	return s.local.List(limit)
}

// Delete removes a conversation from the remote store and the mirror.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.remote != nil {
		if err := s.remote.DeleteConversation(ctx, id); err != nil {
			return err
		}
	}
	if s.local != nil {
		if err := s.local.Delete(id); err != nil {
			s.logger.Warn("failed to delete from local mirror", "conversation_id", id, "error", err)
		}
	}
	return nil
}

// Search returns summaries whose title or message content matches the query.
// Search is served from the local mirror.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]model.ConversationSummary, error) {
	if s.local == nil {
		return nil, &StoreError{Op: "search", Cause: errors.New("local mirror not available")}
	}
	return s.local.Search(query, limit)
}

// Close releases the local mirror.
func (s *Store) Close() error {
	if s.local != nil {
		return s.local.Close()
	}
	return nil
}

// mirror refreshes the local copy after a successful remote write. Mirror
// failures are logged, not surfaced: the remote copy is authoritative.
func (s *Store) mirror(conv *model.Conversation) {
	if s.local == nil {
		return
	}
	if err := s.local.Upsert(conv); err != nil {
		s.logger.Warn("failed to refresh local mirror", "conversation_id", conv.ID, "error", err)
	}
}
