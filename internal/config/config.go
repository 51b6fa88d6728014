// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for voxchat.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.voxchat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/voxchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete voxchat configuration.
type Config struct {
	// General settings
	Version        string `toml:"version"`
	DefaultPersona string `toml:"default_persona"`

	// ResponseLanguage selects the language the assistant replies in
	// ("en" or "sw"). Error copy shown in the transcript follows it too.
	ResponseLanguage string `toml:"response_language"`

	// Gemini API configuration
	Gemini GeminiConfig `toml:"gemini"`

	// Remote conversation store configuration
	Store StoreConfig `toml:"store"`

	// Text-to-speech configuration
	TTS TTSConfig `toml:"tts"`

	// Voice recording configuration
	Audio AudioConfig `toml:"audio"`

	// Speech recognition configuration
	Speech SpeechConfig `toml:"speech"`

	// Attachment handling configuration
	Media MediaConfig `toml:"media"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Logging configuration
	Log LogConfig `toml:"log"`
}

// GeminiConfig contains Gemini API client configuration.
type GeminiConfig struct {
	// APIKey is the Gemini API key. Prefer VOXCHAT_GEMINI_API_KEY over
	// storing it in the config file.
	APIKey string `toml:"api_key"`
	// Model is the Gemini model identifier.
	Model string `toml:"model"`
	// Endpoint is the API base URL.
	Endpoint string `toml:"endpoint"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerMinute caps outbound request rate (0 = unlimited).
	RequestsPerMinute int `toml:"requests_per_minute"`
	// HistoryTurns is how many prior exchanges are included in each prompt.
	HistoryTurns int `toml:"history_turns"`
}

// StoreConfig contains remote conversation store configuration.
type StoreConfig struct {
	// URL is the base URL of the REST store (empty disables remote persistence).
	URL string `toml:"url"`
	// APIKey authenticates against the store.
	APIKey string `toml:"api_key"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
	// LocalDBPath is the sqlite mirror used for offline listing and loading
	// (empty = default ~/.voxchat/conversations.db).
	LocalDBPath string `toml:"local_db_path"`
}

// TTSConfig contains text-to-speech configuration.
type TTSConfig struct {
	// Enabled turns spoken playback of assistant replies on or off.
	Enabled bool `toml:"enabled"`
	// APIKey is the cloud synthesis API key (empty = on-device voices only).
	APIKey string `toml:"api_key"`
	// Endpoint is the cloud synthesis URL.
	Endpoint string `toml:"endpoint"`
	// TimeoutSecs is the synthesis request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
}

// AudioConfig contains voice recording configuration.
type AudioConfig struct {
	// SampleRate is the capture sample rate in Hz.
	SampleRate int `toml:"sample_rate"`
	// MaxDurationSecs is the automatic recording cutoff.
	MaxDurationSecs int `toml:"max_duration_secs"`
	// EchoCancellation requests echo cancellation from the capture device.
	EchoCancellation bool `toml:"echo_cancellation"`
	// NoiseSuppression requests noise suppression from the capture device.
	NoiseSuppression bool `toml:"noise_suppression"`
}

// SpeechConfig contains speech recognition configuration.
type SpeechConfig struct {
	// Language is the recognition language tag (e.g. "en-US").
	Language string `toml:"language"`
	// TimeoutSecs is how long to wait for a transcript before giving up.
	TimeoutSecs int `toml:"timeout_secs"`
}

// MediaConfig contains attachment handling configuration.
type MediaConfig struct {
	// MaxFileSizeMB is the largest accepted attachment in megabytes.
	MaxFileSizeMB int `toml:"max_file_size_mb"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme"`
	// ShowTimestamps displays message timestamps in the transcript.
	ShowTimestamps bool `toml:"show_timestamps"`
	// CompactMode reduces padding in the transcript view.
	CompactMode bool `toml:"compact_mode"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`
	// Path is the log file path (empty = default ~/.voxchat/voxchat.log).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:          "1.0.0",
		DefaultPersona:   "general",
		ResponseLanguage: "en",

		Gemini: GeminiConfig{
			Model:             "gemini-2.0-flash",
			Endpoint:          "https://generativelanguage.googleapis.com/v1beta",
			TimeoutSecs:       60,
			RequestsPerMinute: 30,
			HistoryTurns:      10,
		},

		Store: StoreConfig{
			TimeoutSecs: 15,
		},

		TTS: TTSConfig{
			Enabled:     true,
			Endpoint:    "https://texttospeech.googleapis.com/v1/text:synthesize",
			TimeoutSecs: 30,
		},

		Audio: AudioConfig{
			SampleRate:       44100,
			MaxDurationSecs:  60,
			EchoCancellation: true,
			NoiseSuppression: true,
		},

		Speech: SpeechConfig{
			Language:    "en-US",
			TimeoutSecs: 10,
		},

		Media: MediaConfig{
			MaxFileSizeMB: 10,
		},

		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: false,
			CompactMode:    false,
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the voxchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".voxchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from ~/.voxchat/config.toml, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to ~/.voxchat/config.toml atomically with
// 0600 permissions.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to a specific file path.
func SaveToPath(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Gemini.Endpoint != "" {
		if _, err := url.Parse(c.Gemini.Endpoint); err != nil {
			errs = append(errs, ValidationError{"gemini.endpoint", "not a valid URL"})
		}
	}
	if c.Gemini.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"gemini.timeout_secs", "must be positive"})
	}
	if c.Gemini.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{"gemini.requests_per_minute", "must not be negative"})
	}
	if c.Gemini.HistoryTurns < 0 {
		errs = append(errs, ValidationError{"gemini.history_turns", "must not be negative"})
	}

	if c.Store.URL != "" {
		u, err := url.Parse(c.Store.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{"store.url", "must be an http(s) URL"})
		}
	}
	if c.Store.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"store.timeout_secs", "must be positive"})
	}

	if c.TTS.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"tts.timeout_secs", "must be positive"})
	}

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, ValidationError{"audio.sample_rate", "must be positive"})
	}
	if c.Audio.MaxDurationSecs <= 0 {
		errs = append(errs, ValidationError{"audio.max_duration_secs", "must be positive"})
	}

	if c.Speech.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"speech.timeout_secs", "must be positive"})
	}

	if c.Media.MaxFileSizeMB <= 0 {
		errs = append(errs, ValidationError{"media.max_file_size_mb", "must be positive"})
	}

	switch c.ResponseLanguage {
	case "en", "sw":
	default:
		errs = append(errs, ValidationError{"response_language", `must be "en" or "sw"`})
	}

	switch c.UI.Theme {
	case "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", `must be "dark" or "light"`})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"log.level", `must be one of "debug", "info", "warn", "error"`})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero-valued fields with defaults. Useful after decoding a
// partial config file.
func (c *Config) SetDefaults() {
	def := Default()

	if c.Version == "" {
		c.Version = def.Version
	}
	if c.DefaultPersona == "" {
		c.DefaultPersona = def.DefaultPersona
	}
	if c.ResponseLanguage == "" {
		c.ResponseLanguage = def.ResponseLanguage
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = def.Gemini.Model
	}
	if c.Gemini.Endpoint == "" {
		c.Gemini.Endpoint = def.Gemini.Endpoint
	}
	if c.Gemini.TimeoutSecs == 0 {
		c.Gemini.TimeoutSecs = def.Gemini.TimeoutSecs
	}
	if c.Gemini.HistoryTurns == 0 {
		c.Gemini.HistoryTurns = def.Gemini.HistoryTurns
	}
	if c.Store.TimeoutSecs == 0 {
		c.Store.TimeoutSecs = def.Store.TimeoutSecs
	}
	if c.TTS.Endpoint == "" {
		c.TTS.Endpoint = def.TTS.Endpoint
	}
	if c.TTS.TimeoutSecs == 0 {
		c.TTS.TimeoutSecs = def.TTS.TimeoutSecs
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.Audio.MaxDurationSecs == 0 {
		c.Audio.MaxDurationSecs = def.Audio.MaxDurationSecs
	}
	if c.Speech.Language == "" {
		c.Speech.Language = def.Speech.Language
	}
	if c.Speech.TimeoutSecs == 0 {
		c.Speech.TimeoutSecs = def.Speech.TimeoutSecs
	}
	if c.Media.MaxFileSizeMB == 0 {
		c.Media.MaxFileSizeMB = def.Media.MaxFileSizeMB
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies VOXCHAT_* environment variables on top of the
// loaded configuration. Secrets in particular should come from the
// environment rather than the config file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VOXCHAT_GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("VOXCHAT_GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("VOXCHAT_GEMINI_ENDPOINT"); v != "" {
		c.Gemini.Endpoint = v
	}
	if v := os.Getenv("VOXCHAT_STORE_URL"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("VOXCHAT_STORE_API_KEY"); v != "" {
		c.Store.APIKey = v
	}
	if v := os.Getenv("VOXCHAT_TTS_API_KEY"); v != "" {
		c.TTS.APIKey = v
	}
	if v := os.Getenv("VOXCHAT_TTS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TTS.Enabled = b
		}
	}
	if v := os.Getenv("VOXCHAT_DEFAULT_PERSONA"); v != "" {
		c.DefaultPersona = v
	}
	if v := os.Getenv("VOXCHAT_RESPONSE_LANGUAGE"); v != "" {
		c.ResponseLanguage = v
	}
	if v := os.Getenv("VOXCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("VOXCHAT_LOG_PATH"); v != "" {
		c.Log.Path = v
	}
}

// LogPath returns the configured log file path, or the default
// ~/.voxchat/voxchat.log when unset.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxchat.log"), nil
}

// LocalDBPath returns the configured sqlite mirror path, or the default
// ~/.voxchat/conversations.db when unset.
func (c *Config) LocalDBPath() (string, error) {
	if c.Store.LocalDBPath != "" {
		return c.Store.LocalDBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations.db"), nil
}
