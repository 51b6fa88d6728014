// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "general", cfg.DefaultPersona)
	assert.Equal(t, 60, cfg.Audio.MaxDurationSecs)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 10, cfg.Speech.TimeoutSecs)
	assert.Equal(t, 10, cfg.Media.MaxFileSizeMB)
	assert.True(t, cfg.Audio.EchoCancellation)
	assert.True(t, cfg.Audio.NoiseSuppression)
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Gemini.Model, cfg.Gemini.Model)
}

func TestLoadFromPathPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
default_persona = "code"

[gemini]
model = "gemini-2.0-pro"

[ui]
theme = "light"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "code", cfg.DefaultPersona)
	assert.Equal(t, "gemini-2.0-pro", cfg.Gemini.Model)
	assert.Equal(t, "light", cfg.UI.Theme)
	// Unset sections fall back to defaults.
	assert.Equal(t, 60, cfg.Audio.MaxDurationSecs)
	assert.Equal(t, 10, cfg.Speech.TimeoutSecs)
}

func TestLoadFromPathFixesInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_persona = "writing"`), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOXCHAT_GEMINI_API_KEY", "sekrit")
	t.Setenv("VOXCHAT_TTS_ENABLED", "false")
	t.Setenv("VOXCHAT_LOG_LEVEL", "debug")
	t.Setenv("VOXCHAT_RESPONSE_LANGUAGE", "sw")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "sekrit", cfg.Gemini.APIKey)
	assert.False(t, cfg.TTS.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sw", cfg.ResponseLanguage)
}

func TestResponseLanguage(t *testing.T) {
	assert.Equal(t, "en", Default().ResponseLanguage)

	cfg := Default()
	cfg.ResponseLanguage = "sw"
	require.NoError(t, cfg.Validate())

	cfg.ResponseLanguage = "fr"
	err := cfg.Validate()
	require.Error(t, err)
	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "response_language", errs[0].Field)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Store.URL = "ftp://example.com"
	cfg.UI.Theme = "neon"
	cfg.Audio.MaxDurationSecs = -1

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	fields := make([]string, len(errs))
	for i, ve := range errs {
		fields[i] = ve.Field
	}
	assert.Contains(t, fields, "store.url")
	assert.Contains(t, fields, "ui.theme")
	assert.Contains(t, fields, "audio.max_duration_secs")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultPersona = "beauty"
	cfg.Gemini.Model = "gemini-2.0-flash-lite"
	require.NoError(t, SaveToPath(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "beauty", loaded.DefaultPersona)
	assert.Equal(t, "gemini-2.0-flash-lite", loaded.Gemini.Model)
}
