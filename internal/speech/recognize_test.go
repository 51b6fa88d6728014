// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voxchat-tui/internal/audio"
)

// =============================================================================
// FAKE CAPTURE DEVICE
// =============================================================================

// feedStream delivers frames on a schedule until closed.
type feedStream struct {
	frames chan audio.Frame
	stop   chan struct{}
}

func (s *feedStream) Frames() <-chan audio.Frame { return s.frames }
func (s *feedStream) Err() error                 { return nil }
func (s *feedStream) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return nil
}

// feedCapture opens streams that emit loud frames for loudFor, then quiet
// frames until closed. A zero loudFor emits only quiet frames.
type feedCapture struct {
	loudFor time.Duration
	openErr error
}

func (c *feedCapture) Open(ctx context.Context, opts audio.CaptureOptions) (audio.Stream, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	s := &feedStream{frames: make(chan audio.Frame, 16), stop: make(chan struct{})}
	go func() {
		defer close(s.frames)
		start := time.Now()
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				frame := quietFrame(256)
				if time.Since(start) < c.loudFor {
					frame = loudFrame(256)
				}
				select {
				case s.frames <- frame:
				case <-s.stop:
					return
				}
			}
		}
	}()
	return s, nil
}

// loudFrame produces a frame well above the speech onset threshold.
func loudFrame(n int) audio.Frame {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 8000
	}
	return audio.Frame{Samples: samples}
}

// quietFrame produces a silent frame.
func quietFrame(n int) audio.Frame {
	return audio.Frame{Samples: make([]int16, n)}
}

func testSession(device audio.CaptureDevice) *audio.Session {
	return audio.NewSession(device, audio.SessionConfig{}, testLogger())
}

// transcriptServer answers every recognition request with one transcript.
func transcriptServer(t *testing.T, transcript string, captured *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"alternatives": []map[string]any{{"transcript": transcript, "confidence": 0.95}}},
			},
		})
	}))
}

// =============================================================================
// TESTS
// =============================================================================

func TestCloudRecognizerTranscribesUtterance(t *testing.T) {
	var captured map[string]any
	server := transcriptServer(t, "hello there", &captured)
	defer server.Close()

	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      testSession(&feedCapture{loudFor: time.Second}),
		Endpoint:     server.URL,
		APIKey:       "test-key",
		PollInterval: 5 * time.Millisecond,
		MaxUtterance: 80 * time.Millisecond,
	})

	text, err := rec.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	cfg := captured["config"].(map[string]any)
	assert.Equal(t, "LINEAR16", cfg["encoding"])
	assert.Equal(t, "en-US", cfg["languageCode"])
	assert.EqualValues(t, 44100, cfg["sampleRateHertz"])
	audioBody := captured["audio"].(map[string]any)
	assert.NotEmpty(t, audioBody["content"])
}

func TestCloudRecognizerEndsOnTrailingSilence(t *testing.T) {
	server := transcriptServer(t, "short one", nil)
	defer server.Close()

	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      testSession(&feedCapture{loudFor: 60 * time.Millisecond}),
		Endpoint:     server.URL,
		PollInterval: 5 * time.Millisecond,
		SilenceAfter: 40 * time.Millisecond,
		MaxUtterance: 5 * time.Second,
	})

	start := time.Now()
	text, err := rec.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short one", text)
	assert.Less(t, time.Since(start), 2*time.Second, "silence should end the utterance well before the cap")
}

func TestCloudRecognizerNoSpeech(t *testing.T) {
	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      testSession(&feedCapture{}),
		PollInterval: 5 * time.Millisecond,
		MaxUtterance: 60 * time.Millisecond,
	})

	_, err := rec.Listen(context.Background())
	assert.Equal(t, KindNoSpeech, KindOf(err))
}

func TestCloudRecognizerEmptyResultsIsNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer server.Close()

	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      testSession(&feedCapture{loudFor: time.Second}),
		Endpoint:     server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxUtterance: 60 * time.Millisecond,
	})

	_, err := rec.Listen(context.Background())
	assert.Equal(t, KindNoSpeech, KindOf(err))
}

func TestCloudRecognizerDeniedOnForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      testSession(&feedCapture{loudFor: time.Second}),
		Endpoint:     server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxUtterance: 60 * time.Millisecond,
	})

	_, err := rec.Listen(context.Background())
	assert.Equal(t, KindDenied, KindOf(err))
}

func TestCloudRecognizerDeviceFailure(t *testing.T) {
	rec := NewCloudRecognizer(RecognizerConfig{
		Session: testSession(&feedCapture{openErr: assert.AnError}),
	})
	_, err := rec.Listen(context.Background())
	assert.Equal(t, KindDevice, KindOf(err))

	rec = NewCloudRecognizer(RecognizerConfig{})
	_, err = rec.Listen(context.Background())
	assert.Equal(t, KindDevice, KindOf(err))
}

func TestCloudRecognizerAbort(t *testing.T) {
	session := testSession(&feedCapture{loudFor: time.Hour})
	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      session,
		PollInterval: 5 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() {
		_, err := rec.Listen(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	rec.Abort()

	select {
	case err := <-done:
		assert.Equal(t, KindAborted, KindOf(err))
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after Abort")
	}
	assert.Equal(t, audio.StateIdle, session.State())
}

func TestCloudRecognizerLateAbortDoesNotAffectNextListen(t *testing.T) {
	// The first recognize call is slow enough that the transcription
	// timeout aborts after recording has already ended.
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(150 * time.Millisecond)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"alternatives": []map[string]any{{"transcript": "second try", "confidence": 0.95}}},
			},
		})
	}))
	defer server.Close()

	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      testSession(&feedCapture{loudFor: time.Hour}),
		Endpoint:     server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxUtterance: 40 * time.Millisecond,
	})

	client := NewTranscriptionClient(rec, 60*time.Millisecond, testLogger())
	_, err := client.Transcribe(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)

	// Let the abandoned first Listen drain fully.
	time.Sleep(250 * time.Millisecond)

	text, err := rec.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second try", text)
}

func TestCloudRecognizerExternalStopSendsUtterance(t *testing.T) {
	server := transcriptServer(t, "toggled off", nil)
	defer server.Close()

	session := testSession(&feedCapture{loudFor: time.Hour})
	rec := NewCloudRecognizer(RecognizerConfig{
		Session:      session,
		Endpoint:     server.URL,
		PollInterval: 5 * time.Millisecond,
		SilenceAfter: time.Hour,
		MaxUtterance: time.Hour,
	})

	done := make(chan string, 1)
	go func() {
		text, err := rec.Listen(context.Background())
		assert.NoError(t, err)
		done <- text
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := session.Stop()
	require.NoError(t, err)

	select {
	case text := <-done:
		assert.Equal(t, "toggled off", text)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after external stop")
	}
}
