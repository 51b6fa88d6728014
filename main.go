// voxchat - a voice-enabled terminal client for Gemini chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voxchat-tui/internal/audio"
	"github.com/jeranaias/voxchat-tui/internal/chat"
	"github.com/jeranaias/voxchat-tui/internal/commands"
	"github.com/jeranaias/voxchat-tui/internal/config"
	"github.com/jeranaias/voxchat-tui/internal/gemini"
	"github.com/jeranaias/voxchat-tui/internal/media"
	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/speech"
	"github.com/jeranaias/voxchat-tui/internal/store"
	"github.com/jeranaias/voxchat-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	persona := flag.String("persona", "", "persona to start in (beauty, writing, code, general)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("voxchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *persona != "" {
		cfg.DefaultPersona = *persona
	}

	logger, logClose := openLogger(cfg)
	defer logClose()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// openLogger sets up the file logger. Logging must never write to the
// terminal while the TUI owns it, so failures fall back to a discard
// handler.
func openLogger(cfg *config.Config) (*slog.Logger, func()) {
	level := parseLevel(cfg.Log.Level)

	path, err := cfg.LogPath()
	if err == nil {
		var f *os.File
		if f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
			return logger, func() { f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// run wires the dependency graph and starts the TUI.
func run(cfg *config.Config, logger *slog.Logger) error {
	generator := gemini.NewClient(&gemini.ClientConfig{
		BaseURL:           cfg.Gemini.Endpoint,
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		Timeout:           time.Duration(cfg.Gemini.TimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
	}, logger)

	convStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer convStore.Close()

	session := openSession(cfg, logger)
	speaker, transcriber := openSpeech(cfg, session, logger)

	orch := chat.New(chat.Config{
		Generator:    generator,
		Store:        convStore,
		Transcriber:  transcriber,
		Speaker:      speaker,
		Persona:      cfg.DefaultPersona,
		HistoryTurns: cfg.Gemini.HistoryTurns,
		SpeakReplies: cfg.TTS.Enabled,
		Language:     model.ParseLanguage(cfg.ResponseLanguage),
		Logger:       logger,
	})

	loader := media.NewLoader(int64(cfg.Media.MaxFileSizeMB) * 1024 * 1024)
	registry := commands.NewRegistry()
	cmdCtx := commands.NewContext(cfg, orch, loader)

	model := ui.New(ui.Options{
		Config:       cfg,
		Orchestrator: orch,
		Commands:     registry,
		CommandCtx:   cmdCtx,
		Session:      session,
		Logger:       logger,
	})

	logger.Info("starting voxchat",
		"version", Version,
		"model", cfg.Gemini.Model,
		"remote_store", convStore.HasRemote(),
		"voice", session != nil,
		"tts", cfg.TTS.Enabled)

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// openStore builds the conversation store: the remote REST store when
// configured, always backed by the local sqlite mirror.
func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	var remote *store.RemoteClient
	if cfg.Store.URL != "" {
		remote = store.NewRemoteClient(store.RemoteConfig{
			BaseURL: cfg.Store.URL,
			APIKey:  cfg.Store.APIKey,
			Timeout: time.Duration(cfg.Store.TimeoutSecs) * time.Second,
		})
	}

	dbPath, err := cfg.LocalDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local database path: %w", err)
	}
	local, err := store.OpenLocal(dbPath)
	if err != nil {
		return nil, err
	}

	return store.New(remote, local, logger), nil
}

// openSession builds the microphone session, or nil when no capture backend
// is installed.
func openSession(cfg *config.Config, logger *slog.Logger) *audio.Session {
	if !audio.ArecordAvailable() {
		logger.Info("no audio capture backend found, voice input disabled")
		return nil
	}
	return audio.NewSession(&audio.ArecordDevice{}, audio.SessionConfig{
		Capture: audio.CaptureOptions{
			SampleRate:       cfg.Audio.SampleRate,
			EchoCancellation: cfg.Audio.EchoCancellation,
			NoiseSuppression: cfg.Audio.NoiseSuppression,
		},
		MaxDuration: time.Duration(cfg.Audio.MaxDurationSecs) * time.Second,
	}, logger)
}

// openSpeech builds the playback controller and the transcription client.
// The cloud speech APIs share the TTS key.
func openSpeech(cfg *config.Config, session *audio.Session, logger *slog.Logger) (*speech.Controller, *speech.TranscriptionClient) {
	var synth speech.Synthesizer
	var player speech.Player
	if cfg.TTS.APIKey != "" {
		if p := speech.NewExecPlayer(); p != nil {
			synth = speech.NewCloudSynthesizer(speech.SynthesizerConfig{
				Endpoint: cfg.TTS.Endpoint,
				APIKey:   cfg.TTS.APIKey,
				Timeout:  time.Duration(cfg.TTS.TimeoutSecs) * time.Second,
			})
			player = p
		} else {
			logger.Info("no audio playback tool found, speech output disabled")
		}
	}
	speaker := speech.NewController(synth, player, nil, nil, baseLanguage(cfg.Speech.Language), logger)

	var recognizer speech.Recognizer
	if session != nil && cfg.TTS.APIKey != "" {
		recognizer = speech.NewCloudRecognizer(speech.RecognizerConfig{
			Session:  session,
			Language: cfg.Speech.Language,
			APIKey:   cfg.TTS.APIKey,
		})
	}
	transcriber := speech.NewTranscriptionClient(recognizer,
		time.Duration(cfg.Speech.TimeoutSecs)*time.Second, logger)

	return speaker, transcriber
}

// baseLanguage reduces a BCP 47 tag like "en-US" to its base language.
func baseLanguage(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	return tag
}
