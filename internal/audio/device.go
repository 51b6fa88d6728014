// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio handles voice capture: the device abstraction, level
// metering, WAV encoding, and the recording session state machine.
package audio

import "context"

// CaptureOptions describe the stream requested from a capture device.
type CaptureOptions struct {
	SampleRate       int
	EchoCancellation bool
	NoiseSuppression bool
}

// Frame is one slice of captured PCM-16 mono audio.
type Frame struct {
	Samples []int16
}

// Stream delivers captured frames until closed.
type Stream interface {
	// Frames returns the channel of captured frames. The channel is closed
	// when the stream ends.
	Frames() <-chan Frame

	// Close stops capture and releases the device.
	Close() error

	// Err returns the error that ended the stream, if any.
	Err() error
}

// CaptureDevice opens microphone streams. Implementations wrap whatever
// audio backend is available; tests use an in-memory fake.
type CaptureDevice interface {
	// Open starts capturing. It fails when the microphone is unavailable or
	// permission is denied.
	Open(ctx context.Context, opts CaptureOptions) (Stream, error)
}
