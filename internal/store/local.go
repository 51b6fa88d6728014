// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/voxchat-tui/internal/model"
)

// schema creates the mirror tables on first open.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	persona    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	persona         TEXT NOT NULL DEFAULT '',
	media_name      TEXT NOT NULL DEFAULT '',
	media_type      TEXT NOT NULL DEFAULT '',
	media_preview   TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, position);
`

// LocalDB is the sqlite mirror of the remote store. It keeps the most recent
// copy of every saved conversation so listing, loading, and search keep
// working when the remote is unreachable.
type LocalDB struct {
	db *sql.DB
}

// OpenLocal opens (creating if needed) the sqlite mirror at path.
func OpenLocal(path string) (*LocalDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror database: %w", err)
	}
	// sqlite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &LocalDB{db: db}, nil
}

// Close releases the database handle.
func (l *LocalDB) Close() error {
	return l.db.Close()
}

// Upsert writes a conversation and its messages, replacing any previous copy.
func (l *LocalDB) Upsert(conv *model.Conversation) error {
	tx, err := l.db.Begin()
	if err != nil {
		return &StoreError{Op: "mirror upsert", ConversationID: conv.ID, Cause: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conversations (id, title, persona, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			persona = excluded.persona,
			updated_at = excluded.updated_at`,
		conv.ID, conv.Title, conv.Persona,
		conv.CreatedAt.UTC().Format(time.RFC3339Nano),
		conv.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &StoreError{Op: "mirror upsert", ConversationID: conv.ID, Cause: err}
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return &StoreError{Op: "mirror upsert", ConversationID: conv.ID, Cause: err}
	}

	for i, m := range conv.PersistableMessages() {
		_, err = tx.Exec(`
			INSERT INTO messages
				(id, conversation_id, position, role, content, persona,
				 media_name, media_type, media_preview, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, conv.ID, i, m.Role.String(), m.Content, m.Persona,
			m.MediaName, m.MediaType, m.MediaPreview,
			m.Timestamp.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return &StoreError{Op: "mirror upsert", ConversationID: conv.ID, Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "mirror upsert", ConversationID: conv.ID, Cause: err}
	}
	return nil
}

// Load fetches a conversation and its messages in order.
func (l *LocalDB) Load(id string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: id}
	var createdAt, updatedAt string
	err := l.db.QueryRow(`
		SELECT title, persona, created_at, updated_at
		FROM conversations WHERE id = ?`, id).
		Scan(&conv.Title, &conv.Persona, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "mirror load", ConversationID: id, Cause: err}
	}
	conv.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	conv.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	rows, err := l.db.Query(`
		SELECT id, role, content, persona, media_name, media_type, media_preview, created_at
		FROM messages WHERE conversation_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, &StoreError{Op: "mirror load", ConversationID: id, Cause: err}
	}
	defer rows.Close()

	for rows.Next() {
		var m model.Message
		var role, ts string
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Persona,
			&m.MediaName, &m.MediaType, &m.MediaPreview, &ts); err != nil {
			return nil, &StoreError{Op: "mirror load", ConversationID: id, Cause: err}
		}
		m.Role = model.Role(role)
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		conv.Messages = append(conv.Messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "mirror load", ConversationID: id, Cause: err}
	}
	return conv, nil
}

// List returns summaries ordered by most recent update.
func (l *LocalDB) List(limit int) ([]model.ConversationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(`
		SELECT c.id, c.title, c.persona, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c
		ORDER BY c.updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, &StoreError{Op: "mirror list", Cause: err}
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Search returns summaries whose title or message content contains the
// query, most recently updated first.
func (l *LocalDB) Search(query string, limit int) ([]model.ConversationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := l.db.Query(`
		SELECT DISTINCT c.id, c.title, c.persona, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.title LIKE ? OR m.content LIKE ?
		ORDER BY c.updated_at DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, &StoreError{Op: "mirror search", Cause: err}
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Delete removes a conversation and its messages.
func (l *LocalDB) Delete(id string) error {
	if _, err := l.db.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return &StoreError{Op: "mirror delete", ConversationID: id, Cause: err}
	}
	return nil
}

func scanSummaries(rows *sql.Rows) ([]model.ConversationSummary, error) {
	var summaries []model.ConversationSummary
	for rows.Next() {
		var s model.ConversationSummary
		var updatedAt string
		if err := rows.Scan(&s.ID, &s.Title, &s.Persona, &updatedAt, &s.MessageCount); err != nil {
			return nil, &StoreError{Op: "mirror scan", Cause: err}
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "mirror scan", Cause: err}
	}
	return summaries, nil
}
