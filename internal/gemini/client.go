// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Gemini client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeAuth
	ErrTypeRateLimited
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeBlocked
)

// Sentinel errors for easy checking.
var (
	ErrMissingAPIKey = &ClientError{Type: ErrTypeAuth, Message: "Gemini API key is not configured"}
	ErrRateLimited   = &ClientError{Type: ErrTypeRateLimited, Message: "Gemini rate limit exceeded"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrEmptyResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "Gemini returned an empty response"}
)

// IsTimeout reports whether the error is a request timeout.
func IsTimeout(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeTimeout
}

// IsRateLimited reports whether the error is a rate limit rejection.
func IsRateLimited(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeRateLimited
}

// IsAuthError reports whether the error is an authentication failure.
func IsAuthError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeAuth
}

// IsBlocked reports whether the prompt was rejected by safety filters.
func IsBlocked(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeBlocked
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Gemini client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: the public v1beta endpoint).
	BaseURL string

	// APIKey authenticates requests. Required.
	APIKey string

	// Model is the model identifier (default: "gemini-2.0-flash").
	Model string

	// Timeout per request (default: 60s).
	Timeout time.Duration

	// RequestsPerMinute caps outbound request rate (0 = unlimited).
	RequestsPerMinute int

	// MaxRetries for transient failures (default: 3).
	MaxRetries int

	// RetryDelay between retries (default: 1s).
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		Model:      "gemini-2.0-flash",
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Gemini generateContent API.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Gemini client. A nil config uses defaults; zero-valued
// fields are filled in.
func NewClient(config *ClientConfig, logger *slog.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), config.RequestsPerMinute)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends a text prompt and returns the model's reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []part{{Text: prompt}})
}

// GenerateWithMedia sends a prompt plus inline media bytes (image or video)
// and returns the model's reply.
func (c *Client) GenerateWithMedia(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}},
	}
	return c.generate(ctx, parts)
}

func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &ClientError{Type: ErrTypeRateLimited, Message: "rate limiter wait interrupted", Cause: err}
		}
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", &ClientError{Type: ErrTypeUnknown, Message: "failed to encode request", Cause: err}
	}

	requestID := uuid.NewString()
	url := c.config.BaseURL + "/models/" + c.config.Model + ":generateContent"

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", &ClientError{Type: ErrTypeTimeout, Message: "request cancelled", Cause: ctx.Err()}
			case <-time.After(c.config.RetryDelay):
			}
			c.logger.Debug("retrying Gemini request", "request_id", requestID, "attempt", attempt)
		}

		text, retryable, err := c.doGenerate(ctx, url, requestID, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", lastErr
}

// doGenerate performs one request attempt. The second return value reports
// whether the failure is worth retrying.
func (c *Client) doGenerate(ctx context.Context, url, requestID string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)
	req.Header.Set("x-request-id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", false, ErrTimeout
		}
		return "", true, &ClientError{Type: ErrTypeConnection, Message: "failed to reach Gemini", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}

	c.logger.Debug("Gemini response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", false, &ClientError{Type: ErrTypeAuth, Message: "Gemini rejected the API key"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, ErrRateLimited
	case resp.StatusCode >= 500:
		return "", true, &ClientError{Type: ErrTypeConnection, Message: "Gemini server error: " + resp.Status}
	case resp.StatusCode != http.StatusOK:
		return "", false, &ClientError{Type: ErrTypeUnknown, Message: "unexpected status from Gemini: " + resp.Status}
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", false, &ClientError{Type: ErrTypeBlocked, Message: "prompt blocked: " + parsed.PromptFeedback.BlockReason}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, ErrEmptyResponse
	}

	var sb bytes.Buffer
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", false, ErrEmptyResponse
	}
	return sb.String(), false, nil
}
