// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "strings"

// MaxUtteranceRunes is the on-device synthesis input cap: longer input gets
// silently truncated by some engines, so text beyond this is chunked.
const MaxUtteranceRunes = 200

// SplitUtterances splits text into sentence-bounded chunks of at most max
// runes. Sentences are never split across chunks unless a single sentence
// alone exceeds the limit, in which case it is emitted whole. Text at or
// under the limit is returned as one chunk.
func SplitUtterances(text string, max int) []string {
	if max <= 0 {
		max = MaxUtteranceRunes
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= max {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range sentences {
		sLen := len([]rune(sentence))
		if sLen > max {
			// An oversized sentence is spoken whole rather than cut mid-word.
			flush()
			chunks = append(chunks, sentence)
			continue
		}
		// +1 for the joining space.
		if currentLen > 0 && currentLen+1+sLen > max {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sLen
	}
	flush()
	return chunks
}

// splitSentences cuts text on sentence-terminal punctuation, keeping the
// punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Treat as terminal only at end of text or before whitespace,
			// so "3.14" stays together.
			if i == len(runes)-1 || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
