// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// =============================================================================
// ARECORD CAPTURE DEVICE
// =============================================================================

// arecordFrameSamples is the number of samples per delivered frame, roughly
// 50ms at 44.1kHz.
const arecordFrameSamples = 2048

// ArecordDevice captures microphone audio by running the ALSA arecord tool
// and reading raw PCM-16 from its stdout.
type ArecordDevice struct {
	// Binary overrides the arecord executable path (default: "arecord").
	Binary string

	// Device selects the ALSA device (default: system default).
	Device string
}

// ArecordAvailable reports whether the arecord tool is on PATH.
func ArecordAvailable() bool {
	_, err := exec.LookPath("arecord")
	return err == nil
}

// Open starts arecord and streams its output as frames.
func (d *ArecordDevice) Open(ctx context.Context, opts CaptureOptions) (Stream, error) {
	binary := d.Binary
	if binary == "" {
		binary = "arecord"
	}
	rate := opts.SampleRate
	if rate <= 0 {
		rate = 44100
	}

	args := []string{"-q", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(rate), "-t", "raw"}
	if d.Device != "" {
		args = append(args, "-D", d.Device)
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cmdCtx, binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open arecord pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start arecord: %w", err)
	}

	s := &arecordStream{
		cancel: cancel,
		done:   cmdCtx.Done(),
		frames: make(chan Frame, 4),
	}
	go s.read(stdout, cmd)
	return s, nil
}

type arecordStream struct {
	cancel context.CancelFunc
	done   <-chan struct{}
	frames chan Frame

	mu  sync.Mutex
	err error
}

func (s *arecordStream) Frames() <-chan Frame {
	return s.frames
}

func (s *arecordStream) Close() error {
	s.cancel()
	return nil
}

func (s *arecordStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// read pulls raw PCM from arecord stdout and delivers whole frames. A short
// final read is flushed as a last partial frame.
func (s *arecordStream) read(stdout io.Reader, cmd *exec.Cmd) {
	defer close(s.frames)
	defer cmd.Wait()

	buf := make([]byte, arecordFrameSamples*2)
	for {
		n, err := io.ReadFull(stdout, buf)
		if n > 0 {
			samples := make([]int16, n/2)
			for i := range samples {
				samples[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
			}
			select {
			case s.frames <- Frame{Samples: samples}:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
	}
}
