// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// RESPONSE LANGUAGE
// =============================================================================

// Language selects the language the assistant replies in. Prompts carry an
// explicit instruction so the model answers consistently regardless of the
// input language.
type Language string

const (
	LangEnglish Language = "en"
	LangSwahili Language = "sw"
)

// ParseLanguage maps a config value onto a Language, defaulting to English.
func ParseLanguage(s string) Language {
	if Language(s) == LangSwahili {
		return LangSwahili
	}
	return LangEnglish
}

func languageInstruction(lang Language) string {
	if lang == LangSwahili {
		return "\n\nIMPORTANT: Respond ONLY in Swahili (Kiswahili cha Tanzania). All your responses must be in Swahili language."
	}
	return "\n\nIMPORTANT: Respond in English."
}

// =============================================================================
// PROMPT ASSEMBLY
// =============================================================================

// BuildPrompt assembles the full prompt for a text exchange: the persona's
// system prompt with the response-language instruction, the most recent
// historyTurns messages rendered as "User:"/"Assistant:" lines, and the new
// user message with a trailing "Assistant:" cue. Pending voice placeholders
// are excluded from history.
func BuildPrompt(p Persona, history []*Message, userText string, historyTurns int, lang Language) string {
	var sb strings.Builder
	sb.WriteString(p.SystemPrompt)
	sb.WriteString(languageInstruction(lang))
	sb.WriteString("\n\n")

	recent := recentHistory(history, historyTurns)
	for _, m := range recent {
		switch m.Role {
		case RoleUser:
			sb.WriteString("User: ")
		default:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	sb.WriteString("User: ")
	sb.WriteString(userText)
	sb.WriteString("\nAssistant:")
	return sb.String()
}

// BuildMediaPrompt assembles the prompt accompanying an attachment. History
// is omitted; the persona prompt plus a short framing line and the user's
// caption (or a default request) are sent alongside the media bytes. The
// framing line follows the response language.
func BuildMediaPrompt(p Persona, mediaType, caption string, lang Language) string {
	var framing, fallback string
	if strings.HasPrefix(mediaType, "video/") {
		if lang == LangSwahili {
			framing = "Mtumiaji ameshiriki video. Tafadhali changanua maudhui ya video na toa majibu ya kina kwa maandishi. Eleza unachokiona, vitendo vyovyote vinavyofanyika, muktadha, na maarifa yoyote muhimu kulingana na hali ya sasa."
		} else {
			framing = "User has shared a video. Please analyze the video content and provide a detailed text response. Describe what you see, any actions taking place, the context, and any relevant insights based on the current mode."
		}
		fallback = "Analyze this video"
	} else {
		if lang == LangSwahili {
			framing = "Mtumiaji ameshiriki picha."
		} else {
			framing = "User has shared an image."
		}
		fallback = "Please analyze this image and provide insights based on the current mode."
	}
	if caption == "" {
		caption = fallback
	}
	return p.SystemPrompt + languageInstruction(lang) + "\n\n" + framing + " " + caption
}

// recentHistory returns the last n non-pending messages.
func recentHistory(history []*Message, n int) []*Message {
	filtered := make([]*Message, 0, len(history))
	for _, m := range history {
		if m.Pending {
			continue
		}
		filtered = append(filtered, m)
	}
	if n <= 0 || len(filtered) <= n {
		return filtered
	}
	return filtered[len(filtered)-n:]
}
