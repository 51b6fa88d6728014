// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jeranaias/voxchat-tui/internal/audio"
)

// =============================================================================
// CLOUD RECOGNIZER
// =============================================================================

// RecognizerConfig holds configuration for the cloud recognizer.
type RecognizerConfig struct {
	// Session is the recording session that captures the utterance. The
	// recognizer starts and stops it around each Listen.
	Session *audio.Session

	// Language hint for recognition (default: "en-US").
	Language string

	// Endpoint is the recognition URL.
	Endpoint string

	// APIKey authenticates requests.
	APIKey string

	// Timeout per recognition request (default: 30s).
	Timeout time.Duration

	// StartThreshold is the input level that counts as speech onset
	// (default: 0.02).
	StartThreshold float64

	// EndThreshold is the input level below which audio counts as silence
	// (default: 0.01).
	EndThreshold float64

	// SilenceAfter ends the utterance once this much trailing silence
	// follows detected speech (default: 1.2s).
	SilenceAfter time.Duration

	// MaxUtterance caps how long a single utterance may run (default: 15s).
	MaxUtterance time.Duration

	// PollInterval is how often the input level is sampled for endpointing
	// (default: 50ms).
	PollInterval time.Duration
}

// CloudRecognizer records one utterance through the audio session, ends it
// on trailing silence, and sends the audio to a cloud recognition endpoint
// for a transcript. Stopping the session externally, for example from a
// record toggle in the UI, also ends the utterance and sends it.
type CloudRecognizer struct {
	config     RecognizerConfig
	httpClient *http.Client

	abort chan struct{}
}

// NewCloudRecognizer creates a cloud recognizer.
func NewCloudRecognizer(config RecognizerConfig) *CloudRecognizer {
	if config.Language == "" {
		config.Language = "en-US"
	}
	if config.Endpoint == "" {
		config.Endpoint = "https://speech.googleapis.com/v1/speech:recognize"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.StartThreshold == 0 {
		config.StartThreshold = 0.02
	}
	if config.EndThreshold == 0 {
		config.EndThreshold = 0.01
	}
	if config.SilenceAfter == 0 {
		config.SilenceAfter = 1200 * time.Millisecond
	}
	if config.MaxUtterance == 0 {
		config.MaxUtterance = 15 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = 50 * time.Millisecond
	}
	return &CloudRecognizer{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		abort:      make(chan struct{}, 1),
	}
}

// Listen records one utterance and returns its transcript.
func (r *CloudRecognizer) Listen(ctx context.Context) (string, error) {
	if r.config.Session == nil {
		return "", &RecognitionError{Kind: KindDevice, Message: "no capture device available"}
	}

	// An abort that landed after a previous Listen finished, such as a
	// transcription timeout firing during the recognize call, must not
	// carry into this one.
	select {
	case <-r.abort:
	default:
	}

	clip, spoke, err := r.record(ctx)
	if err != nil {
		return "", err
	}
	if !spoke {
		return "", &RecognitionError{Kind: KindNoSpeech, Message: "no speech was detected"}
	}

	return r.recognize(ctx, clip)
}

// Abort cancels an in-progress Listen.
func (r *CloudRecognizer) Abort() {
	select {
	case r.abort <- struct{}{}:
	default:
	}
}

// =============================================================================
// UTTERANCE RECORDING
// =============================================================================

// record runs the session until the utterance ends: trailing silence after
// speech onset, the utterance cap, an external session stop, or an abort.
// The spoke result reports whether speech onset was ever observed.
func (r *CloudRecognizer) record(ctx context.Context) (audio.Clip, bool, error) {
	session := r.config.Session

	clips := make(chan audio.Clip, 1)
	fails := make(chan error, 1)
	session.OnClip = func(c audio.Clip) {
		select {
		case clips <- c:
		default:
		}
	}
	session.OnError = func(err error) {
		select {
		case fails <- err:
		default:
		}
	}
	defer func() {
		session.OnClip = nil
		session.OnError = nil
	}()

	if err := session.Start(ctx); err != nil {
		return audio.Clip{}, false, &RecognitionError{Kind: KindDevice, Message: "failed to start recording", Cause: err}
	}

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	spoke := false
	var silentFor time.Duration

	for {
		select {
		case <-ctx.Done():
			session.Cancel()
			return audio.Clip{}, spoke, &RecognitionError{Kind: KindAborted, Message: "recognition cancelled", Cause: ctx.Err()}
		case <-r.abort:
			session.Cancel()
			return audio.Clip{}, spoke, &RecognitionError{Kind: KindAborted, Message: "recognition aborted"}
		case err := <-fails:
			return audio.Clip{}, spoke, &RecognitionError{Kind: KindDevice, Message: "capture failed", Cause: err}
		case clip := <-clips:
			// Stopped externally or by the session's own duration cap.
			return clip, spoke, nil
		case <-ticker.C:
			level := session.Level()
			if !spoke {
				if level >= r.config.StartThreshold {
					spoke = true
					silentFor = 0
				}
			} else if level < r.config.EndThreshold {
				silentFor += r.config.PollInterval
			} else {
				silentFor = 0
			}

			endpoint := (spoke && silentFor >= r.config.SilenceAfter) ||
				session.Elapsed() >= r.config.MaxUtterance
			if !endpoint {
				continue
			}
			clip, err := session.Stop()
			if err != nil {
				if !spoke {
					return audio.Clip{}, false, &RecognitionError{Kind: KindNoSpeech, Message: "no speech was detected", Cause: err}
				}
				return audio.Clip{}, spoke, &RecognitionError{Kind: KindDevice, Message: "failed to finish recording", Cause: err}
			}
			return *clip, spoke, nil
		}
	}
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

type recognizeRequest struct {
	Config struct {
		Encoding        string `json:"encoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
		LanguageCode    string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// recognize sends the recorded clip to the recognition endpoint. The clip
// is WAV; the endpoint wants headerless PCM, so the 44-byte header is
// stripped.
func (r *CloudRecognizer) recognize(ctx context.Context, clip audio.Clip) (string, error) {
	pcm := clip.WAV
	if len(pcm) > 44 {
		pcm = pcm[44:]
	}

	var reqBody recognizeRequest
	reqBody.Config.Encoding = "LINEAR16"
	reqBody.Config.SampleRateHertz = clip.SampleRate
	reqBody.Config.LanguageCode = r.config.Language
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(pcm)

	payload, err := json.Marshal(&reqBody)
	if err != nil {
		return "", &RecognitionError{Kind: KindOther, Message: "failed to encode recognition request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &RecognitionError{Kind: KindOther, Message: "failed to create recognition request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", r.config.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &RecognitionError{Kind: KindNetwork, Message: "recognition request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &RecognitionError{Kind: KindDenied, Message: fmt.Sprintf("recognition request rejected (HTTP %d)", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", &RecognitionError{Kind: KindNetwork, Message: fmt.Sprintf("recognition failed (HTTP %d): %s", resp.StatusCode, detail)}
	}

	var result recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &RecognitionError{Kind: KindOther, Message: "failed to decode recognition response", Cause: err}
	}
	if len(result.Results) == 0 || len(result.Results[0].Alternatives) == 0 {
		return "", &RecognitionError{Kind: KindNoSpeech, Message: "no speech was detected"}
	}
	return result.Results[0].Alternatives[0].Transcript, nil
}
