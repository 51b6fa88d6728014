// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// PLAYBACK INTERFACES
// =============================================================================

// Synthesizer renders text to audio bytes. CloudSynthesizer is the real
// implementation; tests use fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceConfig) ([]byte, error)
}

// Player plays rendered audio. One playback at a time; done fires on natural
// completion or playback error, but not after Stop.
type Player interface {
	Play(data []byte, mimeType string, done func(error)) error
	Stop()
}

// Engine is an on-device speech synthesizer with enumerable voices. Some
// engines silently pause themselves mid-utterance and silently truncate long
// input; the Controller works around both.
type Engine interface {
	Voices() []Voice
	// Speak renders one utterance; done fires on completion, not after Cancel.
	Speak(text string, voice Voice, done func()) error
	Cancel()
	Paused() bool
	Resume()
}

// =============================================================================
// PLAYBACK CONTROLLER
// =============================================================================

// watchdogInterval is how often the anti-pause watchdog checks the engine.
const watchdogInterval = 100 * time.Millisecond

// Controller speaks text aloud, preferring cloud synthesis and falling back
// to the on-device engine. Only one playback is active at a time; starting a
// new one fully stops the previous. A generation counter tags each playback
// so events from a stopped playback are discarded.
type Controller struct {
	synth    Synthesizer // nil when no cloud synthesis is configured
	player   Player      // required with synth
	engine   Engine      // nil when no on-device engine exists
	selector VoiceSelector
	userLang string
	logger   *slog.Logger

	mu         sync.Mutex
	generation int
	speaking   bool
}

// NewController creates a playback controller. selector defaults to
// SelectVoice and userLang to "en".
func NewController(synth Synthesizer, player Player, engine Engine, selector VoiceSelector, userLang string, logger *slog.Logger) *Controller {
	if selector == nil {
		selector = SelectVoice
	}
	if userLang == "" {
		userLang = "en"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		synth:    synth,
		player:   player,
		engine:   engine,
		selector: selector,
		userLang: userLang,
		logger:   logger,
	}
}

// IsSpeaking reports whether a playback is active.
func (c *Controller) IsSpeaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Speak voices text aloud. Any active playback is stopped first. onDone
// fires exactly once on natural completion or failure; it does not fire
// when the playback is cut short by Stop or a newer Speak.
func (c *Controller) Speak(ctx context.Context, text string, onDone func(error)) {
	if onDone == nil {
		onDone = func(error) {}
	}

	c.mu.Lock()
	c.stopLocked()
	c.generation++
	gen := c.generation
	c.speaking = true
	c.mu.Unlock()

	if c.synth != nil && c.player != nil {
		go c.speakCloud(ctx, gen, text, onDone)
		return
	}
	if c.engine != nil {
		c.speakEngine(gen, text, onDone)
		return
	}
	c.finish(gen, &SynthesisError{Message: "no speech synthesis capability available"}, onDone)
}

// Stop cancels any active playback. Idempotent; safe when nothing is
// speaking. Pending completion callbacks are invalidated.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.generation++
	c.mu.Unlock()
}

// stopLocked halts the backends. Callers hold mu.
func (c *Controller) stopLocked() {
	if !c.speaking {
		return
	}
	c.speaking = false
	if c.player != nil {
		c.player.Stop()
	}
	if c.engine != nil {
		c.engine.Cancel()
	}
}

// current reports whether a generation is still the active playback.
func (c *Controller) current(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen && c.speaking
}

// finish ends a playback and fires onDone, unless the playback was already
// superseded.
func (c *Controller) finish(gen int, err error, onDone func(error)) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.speaking = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("speech playback failed", "error", err)
	}
	onDone(err)
}

// =============================================================================
// CLOUD PATH
// =============================================================================

// speakCloud detects the text's language, synthesizes with the mapped cloud
// voice, and plays the result.
func (c *Controller) speakCloud(ctx context.Context, gen int, text string, onDone func(error)) {
	lang := DetectLanguage(text)
	voice := CloudVoiceFor(lang)
	c.logger.Debug("cloud synthesis", "language", lang, "voice", voice.Name)

	audio, err := c.synth.Synthesize(ctx, text, voice)
	if err != nil {
		c.finish(gen, err, onDone)
		return
	}
	if !c.current(gen) {
		return
	}

	err = c.player.Play(audio, "audio/mp3", func(playErr error) {
		c.finish(gen, playErr, onDone)
	})
	if err != nil {
		c.finish(gen, &SynthesisError{Message: "playback failed to start", Cause: err}, onDone)
	}
}

// =============================================================================
// ON-DEVICE PATH
// =============================================================================

// speakEngine chunks long text at sentence boundaries and speaks the chunks
// strictly sequentially. Short text goes out as a single utterance guarded
// by the anti-pause watchdog.
func (c *Controller) speakEngine(gen int, text string, onDone func(error)) {
	voice, ok := c.selector(c.engine.Voices(), c.userLang)
	if !ok {
		c.finish(gen, &SynthesisError{Message: "no synthesis voices available"}, onDone)
		return
	}

	chunks := SplitUtterances(text, MaxUtteranceRunes)
	if len(chunks) == 0 {
		c.finish(gen, nil, onDone)
		return
	}

	if len(chunks) == 1 {
		// Some engines pause themselves a few seconds into an utterance;
		// the watchdog forces a resume until speech ends.
		go c.watchdog(gen)
	}

	var next func(i int)
	next = func(i int) {
		if !c.current(gen) {
			return
		}
		if i >= len(chunks) {
			c.finish(gen, nil, onDone)
			return
		}
		err := c.engine.Speak(chunks[i], voice, func() { next(i + 1) })
		if err != nil {
			c.finish(gen, &SynthesisError{Message: "utterance failed", Cause: err}, onDone)
		}
	}
	next(0)
}

// watchdog periodically resumes a silently paused engine while the playback
// it guards is still active.
func (c *Controller) watchdog(gen int) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !c.current(gen) {
			return
		}
		if c.engine.Paused() {
			c.engine.Resume()
		}
	}
}
