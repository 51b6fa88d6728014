// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Recognizer is a live speech-to-text capability: it listens on the
// microphone directly and resolves with one transcript. Implementations wrap
// whatever recognition backend is available; tests use fakes.
type Recognizer interface {
	// Listen blocks until a single utterance is recognized, classifying
	// failures as RecognitionError kinds. Non-continuous, no interim
	// results, one alternative.
	Listen(ctx context.Context) (string, error)

	// Abort cancels an in-progress Listen. The aborted Listen returns a
	// KindAborted error.
	Abort()
}

// =============================================================================
// TRANSCRIPTION CLIENT
// =============================================================================

// TranscriptionClient wraps a Recognizer with the hard recognition timeout.
// A result arriving after the timeout is discarded; the recognizer is
// aborted so no further callbacks fire.
type TranscriptionClient struct {
	recognizer Recognizer
	timeout    time.Duration
	logger     *slog.Logger
}

// NewTranscriptionClient creates a TranscriptionClient. A zero timeout
// defaults to 10 seconds. The recognizer may be nil when the capability is
// absent; Transcribe then fails fast with ErrUnsupported.
func NewTranscriptionClient(recognizer Recognizer, timeout time.Duration, logger *slog.Logger) *TranscriptionClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptionClient{recognizer: recognizer, timeout: timeout, logger: logger}
}

// Supported reports whether a recognition capability is available.
func (c *TranscriptionClient) Supported() bool {
	return c.recognizer != nil
}

// Transcribe listens for one utterance and returns its transcript. The
// timeout is measured from invocation; on expiry the recognizer is aborted
// and ErrTimeout is returned.
func (c *TranscriptionClient) Transcribe(ctx context.Context) (string, error) {
	if c.recognizer == nil {
		return "", ErrUnsupported
	}

	type outcome struct {
		text string
		err  error
	}
	// Buffered so a late result never blocks the abandoned goroutine.
	results := make(chan outcome, 1)

	go func() {
		text, err := c.recognizer.Listen(ctx)
		results <- outcome{text, err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case out := <-results:
		if out.err != nil {
			c.logger.Debug("recognition failed", "kind", KindOf(out.err).String(), "error", out.err)
			return "", out.err
		}
		return out.text, nil
	case <-timer.C:
		c.recognizer.Abort()
		c.logger.Debug("recognition timed out", "timeout", c.timeout)
		return "", ErrTimeout
	case <-ctx.Done():
		c.recognizer.Abort()
		return "", &RecognitionError{Kind: KindAborted, Message: "recognition cancelled", Cause: ctx.Err()}
	}
}

// =============================================================================
// EVENT ADAPTER
// =============================================================================

// EventRecognizer adapts an event-callback recognition backend into the
// Recognizer interface: the backend's result/error handlers call Resolve or
// Fail, and Listen resolves exactly once no matter how many events fire.
type EventRecognizer struct {
	// Start begins recognition on the backend. Required.
	Start func() error

	// Cancel stops the backend. Called by Abort.
	Cancel func()

	mu       sync.Mutex
	waiter   chan eventOutcome
	resolved bool
}

type eventOutcome struct {
	text string
	err  error
}

// Resolve delivers a successful transcript. Later calls are ignored.
func (r *EventRecognizer) Resolve(text string) {
	r.deliver(eventOutcome{text: text})
}

// Fail delivers a classified failure. Later calls are ignored.
func (r *EventRecognizer) Fail(err error) {
	r.deliver(eventOutcome{err: err})
}

func (r *EventRecognizer) deliver(out eventOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved || r.waiter == nil {
		return
	}
	r.resolved = true
	r.waiter <- out
}

// Listen starts the backend and blocks until Resolve or Fail is called.
func (r *EventRecognizer) Listen(ctx context.Context) (string, error) {
	r.mu.Lock()
	r.waiter = make(chan eventOutcome, 1)
	r.resolved = false
	r.mu.Unlock()

	if err := r.Start(); err != nil {
		return "", &RecognitionError{Kind: KindDevice, Message: "failed to start recognition", Cause: err}
	}

	select {
	case out := <-r.waiter:
		return out.text, out.err
	case <-ctx.Done():
		r.Abort()
		return "", &RecognitionError{Kind: KindAborted, Message: "recognition cancelled", Cause: ctx.Err()}
	}
}

// Abort cancels the backend and resolves any pending Listen as aborted.
func (r *EventRecognizer) Abort() {
	if r.Cancel != nil {
		r.Cancel()
	}
	r.Fail(&RecognitionError{Kind: KindAborted, Message: "recognition aborted"})
}
