// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Session errors.
var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// State is the recording session state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Clip is a finished recording.
type Clip struct {
	WAV        []byte
	SampleRate int
	Duration   time.Duration
}

// SessionConfig configures a recording session.
type SessionConfig struct {
	Capture     CaptureOptions
	MaxDuration time.Duration // auto-stop cutoff (default: 60s)
}

// Session is the recording state machine: idle -> recording <-> paused ->
// idle. Frames captured while paused are discarded. Recording stops on
// request or automatically at MaxDuration; either way the collected samples
// are encoded as WAV and handed to OnClip.
type Session struct {
	device CaptureDevice
	config SessionConfig
	logger *slog.Logger

	// OnClip receives the finished recording. Called after the session has
	// returned to idle, off the caller's goroutine on auto-stop.
	OnClip func(Clip)

	// OnError receives stream failures that end the recording.
	OnError func(error)

	mu        sync.Mutex
	state     State
	stream    Stream
	samples   []int16
	startedAt time.Time
	pausedFor time.Duration
	pausedAt  time.Time
	stopTimer *time.Timer
	meter     *LevelMeter
	done      chan struct{}
}

// NewSession creates a recording session.
func NewSession(device CaptureDevice, config SessionConfig, logger *slog.Logger) *Session {
	if config.MaxDuration <= 0 {
		config.MaxDuration = 60 * time.Second
	}
	if config.Capture.SampleRate <= 0 {
		config.Capture.SampleRate = 44100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		device: device,
		config: config,
		logger: logger,
		meter:  NewLevelMeter(),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Level returns the current input level in [0, 1].
func (s *Session) Level() float64 {
	return s.meter.Level()
}

// Elapsed returns how long the session has been recording, excluding time
// spent paused.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() time.Duration {
	if s.state == StateIdle {
		return 0
	}
	elapsed := time.Since(s.startedAt) - s.pausedFor
	if s.state == StatePaused {
		elapsed -= time.Since(s.pausedAt)
	}
	return elapsed
}

// Start opens the capture device and begins recording.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}

	stream, err := s.device.Open(ctx, s.config.Capture)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.state = StateRecording
	s.stream = stream
	s.samples = nil
	s.startedAt = time.Now()
	s.pausedFor = 0
	s.meter.Reset()
	s.done = make(chan struct{})
	s.stopTimer = time.AfterFunc(s.config.MaxDuration, func() {
		s.logger.Debug("recording reached max duration, auto-stopping")
		s.autoStop()
	})
	done := s.done
	s.mu.Unlock()

	go s.collect(stream, done)
	s.logger.Debug("recording started", "sample_rate", s.config.Capture.SampleRate)
	return nil
}

// collect drains the stream, appending frames unless paused.
func (s *Session) collect(stream Stream, done chan struct{}) {
	defer close(done)
	for frame := range stream.Frames() {
		s.mu.Lock()
		if s.state == StateRecording {
			s.samples = append(s.samples, frame.Samples...)
			s.mu.Unlock()
			s.meter.Process(frame.Samples)
			continue
		}
		s.mu.Unlock()
	}

	if err := stream.Err(); err != nil {
		s.logger.Error("capture stream failed", "error", err)
		s.failFromStream(err)
	}
}

// Pause suspends collection; frames arriving while paused are dropped.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return ErrNotRecording
	}
	s.state = StatePaused
	s.pausedAt = time.Now()
	return nil
}

// Resume continues a paused recording.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return ErrNotRecording
	}
	s.pausedFor += time.Since(s.pausedAt)
	s.state = StateRecording
	return nil
}

// Stop ends the recording and returns the encoded clip. The session is back
// at idle before the clip is delivered. Stopping an idle session returns
// ErrNotRecording.
func (s *Session) Stop() (*Clip, error) {
	clip, err := s.finish()
	if err != nil {
		return nil, err
	}
	if s.OnClip != nil {
		s.OnClip(*clip)
	}
	return clip, nil
}

// Cancel discards the recording without producing a clip.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return ErrNotRecording
	}
	s.teardownLocked()
	s.mu.Unlock()
	s.logger.Debug("recording cancelled")
	return nil
}

// autoStop is the MaxDuration cutoff path: same as Stop, but errors are
// reported through OnError since there is no caller.
func (s *Session) autoStop() {
	clip, err := s.finish()
	if err != nil {
		if !errors.Is(err, ErrNotRecording) && s.OnError != nil {
			s.OnError(err)
		}
		return
	}
	if s.OnClip != nil {
		s.OnClip(*clip)
	}
}

// failFromStream tears down after a mid-recording device failure.
func (s *Session) failFromStream(err error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}
	s.stream = nil
	s.samples = nil
	s.mu.Unlock()

	if s.OnError != nil {
		s.OnError(err)
	}
}

// finish transitions to idle and encodes the collected samples.
func (s *Session) finish() (*Clip, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil, ErrNotRecording
	}

	elapsed := s.elapsedLocked()
	samples := s.samples
	done := s.done
	s.teardownLocked()
	s.mu.Unlock()

	// Wait for the collector to drain so no frames race the encode.
	if done != nil {
		<-done
	}

	if len(samples) == 0 {
		return nil, errors.New("recording captured no audio")
	}

	wav, err := EncodeWAV(samples, s.config.Capture.SampleRate)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("recording stopped", "duration_ms", elapsed.Milliseconds(), "samples", len(samples))
	return &Clip{WAV: wav, SampleRate: s.config.Capture.SampleRate, Duration: elapsed}, nil
}

// teardownLocked resets state and releases the device. Callers hold mu.
func (s *Session) teardownLocked() {
	s.state = StateIdle
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.samples = nil
	s.pausedFor = 0
}
