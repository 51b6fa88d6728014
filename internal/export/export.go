// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to files in Markdown, JSON, or plain
// text form.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/util"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format identifies an export format.
type Format int

const (
	FormatMarkdown Format = iota
	FormatJSON
	FormatText
)

// Exporter converts a conversation to a target format.
type Exporter interface {
	// Export renders the conversation and returns the file content.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string
}

// exporterFor returns the exporter for a format.
func exporterFor(format Format, opts *Options) Exporter {
	switch format {
	case FormatJSON:
		return &JSONExporter{}
	case FormatText:
		return &TextExporter{options: opts}
	default:
		return &MarkdownExporter{options: opts}
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files are saved.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata includes a metadata header (persona, timestamps).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// ToFile exports a conversation to a file and returns the output path.
func ToFile(conv *model.Conversation, format Format, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	exporter := exporterFor(format, opts)
	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	title := conv.Title
	if title == "" {
		title = conv.DeriveTitle()
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(title), timestamp, exporter.FileExtension())

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in
// filenames on either Windows or Unix.
func sanitizeFilename(s string) string {
	s = util.TruncateRunesNoEllipsis(s, 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case replacer[r] != 0:
			result = append(result, replacer[r])
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// personaName resolves a persona ID to its display name.
func personaName(id string) string {
	if p, ok := model.PersonaByID(id); ok {
		return p.Name
	}
	return id
}
