// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package media handles file attachments: loading, validation against the
// size limit and type allow-list, and preview generation for images.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the attachment size cap when no limit is configured.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB

// allowedTypes is the attachment type allow-list.
var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"video/ogg":       true,
	"audio/mp3":       true,
	"audio/mpeg":      true,
	"audio/wav":       true,
	"audio/ogg":       true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// extTypes covers document extensions the platform mime table may not know.
var extTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// =============================================================================
// ERRORS
// =============================================================================

// ValidationError describes why an attachment was rejected.
type ValidationError struct {
	Name    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is a validated file ready to send with a message.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the attachment size in bytes.
func (a *Attachment) Size() int {
	return len(a.Data)
}

// IsImage reports whether the attachment is an image.
func (a *Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// IsVideo reports whether the attachment is a video.
func (a *Attachment) IsVideo() bool {
	return strings.HasPrefix(a.MIMEType, "video/")
}

// PreviewDataURI returns a data URI for image attachments, used as the
// message's media preview. Non-images return an empty string.
func (a *Attachment) PreviewDataURI() string {
	if !a.IsImage() {
		return ""
	}
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// =============================================================================
// LOADING AND VALIDATION
// =============================================================================

// Loader loads and validates attachments against a configured size limit.
type Loader struct {
	maxSize int64
}

// NewLoader creates a Loader. maxSize <= 0 uses the default 10MB cap.
func NewLoader(maxSize int64) *Loader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Loader{maxSize: maxSize}
}

// Load reads a file from disk, validates it, and returns an Attachment.
func (l *Loader) Load(path string) (*Attachment, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, &ValidationError{Name: name, Message: "is a directory"}
	}
	if info.Size() > l.maxSize {
		return nil, &ValidationError{Name: name, Message: fmt.Sprintf("file size exceeds %dMB limit", l.maxSize/(1024*1024))}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	mimeType := DetectMIMEType(name, data)
	if !allowedTypes[mimeType] {
		return nil, &ValidationError{Name: name, Message: "file type not supported"}
	}

	return &Attachment{Name: name, MIMEType: mimeType, Data: data}, nil
}

// DetectMIMEType determines an attachment's MIME type from its extension,
// falling back to content sniffing when the extension is unknown.
func DetectMIMEType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extTypes[ext]; ok {
		return t
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		// Drop parameters like "; charset=utf-8".
		if i := strings.Index(byExt, ";"); i >= 0 {
			byExt = strings.TrimSpace(byExt[:i])
		}
		return byExt
	}

	sniffed := http.DetectContentType(data)
	if i := strings.Index(sniffed, ";"); i >= 0 {
		sniffed = strings.TrimSpace(sniffed[:i])
	}
	return sniffed
}

// IsAllowedType reports whether a MIME type is on the attachment allow-list.
func IsAllowedType(mimeType string) bool {
	return allowedTypes[mimeType]
}
