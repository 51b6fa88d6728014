// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"strings"

	"golang.org/x/text/language"
)

// =============================================================================
// CLOUD VOICE TABLE
// =============================================================================

// VoiceConfig selects a cloud synthesis voice.
type VoiceConfig struct {
	LanguageCode string
	Name         string
	Gender       string
}

// languageVoices maps detected languages to cloud voices.
var languageVoices = map[string]VoiceConfig{
	"en": {LanguageCode: "en-US", Name: "en-US-Neural2-J", Gender: "MALE"},
	"sw": {LanguageCode: "sw-KE", Name: "sw-KE-Standard-A", Gender: "MALE"},
	"es": {LanguageCode: "es-ES", Name: "es-ES-Neural2-B", Gender: "MALE"},
	"fr": {LanguageCode: "fr-FR", Name: "fr-FR-Neural2-B", Gender: "MALE"},
}

// CloudVoiceFor returns the cloud voice for a detected language, falling
// back to English.
func CloudVoiceFor(lang string) VoiceConfig {
	if v, ok := languageVoices[lang]; ok {
		return v
	}
	return languageVoices["en"]
}

// =============================================================================
// ON-DEVICE VOICE LADDER
// =============================================================================

// Voice describes one selectable on-device synthesis voice.
type Voice struct {
	Name    string
	Lang    string // BCP 47 tag, e.g. "en-US"
	Natural bool   // tagged natural/premium by the platform
	Default bool   // the platform default voice
}

// knownGoodVoices are platform voices known to sound well, tried first.
var knownGoodVoices = []string{
	"Google US English",
	"Microsoft Zira",
	"Samantha",
	"Daniel",
}

// VoiceSelector picks an on-device voice for a language. Injectable so the
// ladder can be replaced without touching the playback state machine.
type VoiceSelector func(voices []Voice, userLang string) (Voice, bool)

// SelectVoice is the default ladder:
//  1. a known high-quality voice in the user's language
//  2. any natural/premium voice in the user's language
//  3. the platform default voice in the user's language
//  4. any voice in the user's language
//  5. any English voice
//  6. the first available voice
func SelectVoice(voices []Voice, userLang string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	inLang := func(v Voice) bool { return sameLanguage(v.Lang, userLang) }

	for _, name := range knownGoodVoices {
		for _, v := range voices {
			if v.Name == name && inLang(v) {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if v.Natural && inLang(v) {
			return v, true
		}
	}
	for _, v := range voices {
		if v.Default && inLang(v) {
			return v, true
		}
	}
	for _, v := range voices {
		if inLang(v) {
			return v, true
		}
	}
	for _, v := range voices {
		if sameLanguage(v.Lang, "en") {
			return v, true
		}
	}
	return voices[0], true
}

// sameLanguage reports whether two BCP 47 tags share a base language
// ("en-US" matches "en-GB" and "en").
func sameLanguage(a, b string) bool {
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		// Fall back to a prefix comparison on malformed tags.
		return strings.EqualFold(baseOf(a), baseOf(b))
	}
	baseA, _ := ta.Base()
	baseB, _ := tb.Base()
	return baseA == baseB
}

func baseOf(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		return tag[:i]
	}
	return tag
}
