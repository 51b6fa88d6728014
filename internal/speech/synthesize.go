// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// CLOUD SYNTHESIZER
// =============================================================================

// SynthesizerConfig holds cloud synthesis settings.
type SynthesizerConfig struct {
	// Endpoint is the synthesis URL.
	Endpoint string

	// APIKey authenticates requests.
	APIKey string

	// Timeout per request (default: 30s).
	Timeout time.Duration
}

// CloudSynthesizer renders text to MP3 audio through the remote synthesis
// API.
type CloudSynthesizer struct {
	config     SynthesizerConfig
	httpClient *http.Client
}

// NewCloudSynthesizer creates a cloud synthesizer.
func NewCloudSynthesizer(config SynthesizerConfig) *CloudSynthesizer {
	if config.Endpoint == "" {
		config.Endpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &CloudSynthesizer{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
		SSMLGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		Pitch         float64 `json:"pitch"`
		VolumeGainDb  float64 `json:"volumeGainDb"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize renders text with the given voice and returns MP3 bytes.
func (s *CloudSynthesizer) Synthesize(ctx context.Context, text string, voice VoiceConfig) ([]byte, error) {
	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = voice.LanguageCode
	reqBody.Voice.Name = voice.Name
	reqBody.Voice.SSMLGender = voice.Gender
	reqBody.AudioConfig.AudioEncoding = "MP3"
	reqBody.AudioConfig.SpeakingRate = 1.0

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &SynthesisError{Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &SynthesisError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &SynthesisError{Message: "synthesis request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &SynthesisError{Message: "synthesis API error " + resp.Status + ": " + string(bytes.TrimSpace(detail))}
	}

	var parsed synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &SynthesisError{Message: "failed to decode response", Cause: err}
	}
	if parsed.AudioContent == "" {
		return nil, &SynthesisError{Message: "no audio content in response"}
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, &SynthesisError{Message: "failed to decode audio content", Cause: err}
	}
	return audio, nil
}
