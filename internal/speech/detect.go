// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "strings"

// swahiliMarkers are common Swahili words used for cheap language detection.
var swahiliMarkers = []string{
	"habari", "jambo", "asante", "karibu", "nini",
	"vipi", "sana", "mimi", "wewe", "kwa",
}

const frenchDiacritics = "àâäéèêëïîôùûüÿç"
const spanishMarkers = "áéíóúñ¿¡"

// DetectLanguage guesses the language of a text with a fixed heuristic:
// two or more Swahili marker words mean Swahili, French diacritics mean
// French, Spanish diacritics or punctuation mean Spanish, anything else is
// English. Heuristic policy, not protocol; replaceable without touching the
// playback path.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)

	count := 0
	for _, word := range swahiliMarkers {
		if strings.Contains(lower, word) {
			count++
		}
	}
	if count >= 2 {
		return "sw"
	}

	if strings.ContainsAny(lower, frenchDiacritics) {
		return "fr"
	}
	if strings.ContainsAny(lower, spanishMarkers) {
		return "es"
	}
	return "en"
}
