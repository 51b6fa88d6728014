// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"fmt"
	"os/exec"
	"sync"
)

// =============================================================================
// EXEC PLAYER
// =============================================================================

// playerCommands are the playback tools tried in order, each reading audio
// from stdin.
var playerCommands = [][]string{
	{"mpv", "--no-video", "--really-quiet", "-"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"},
	{"play", "-q", "-t", "mp3", "-"},
}

// ExecPlayer plays audio by piping it to an external playback tool.
type ExecPlayer struct {
	argv []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecPlayer finds a playback tool on PATH. Returns nil when none is
// installed; callers treat a nil player as no playback capability.
func NewExecPlayer() *ExecPlayer {
	for _, argv := range playerCommands {
		if _, err := exec.LookPath(argv[0]); err == nil {
			return &ExecPlayer{argv: argv}
		}
	}
	return nil
}

// Play starts playback and returns immediately. done fires when the tool
// exits on its own; Stop suppresses it.
func (p *ExecPlayer) Play(data []byte, mimeType string, done func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		p.stopLocked()
	}

	cmd := exec.Command(p.argv[0], p.argv[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start audio playback: %w", err)
	}
	p.cmd = cmd

	go func() {
		err := cmd.Wait()

		p.mu.Lock()
		stopped := p.cmd != cmd
		if !stopped {
			p.cmd = nil
		}
		p.mu.Unlock()

		if !stopped && done != nil {
			done(err)
		}
	}()
	return nil
}

// Stop kills the current playback, if any.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *ExecPlayer) stopLocked() {
	if p.cmd == nil {
		return
	}
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd = nil
}
