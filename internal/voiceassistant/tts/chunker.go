// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     tts
// Description: Response text chunking for synthesis
// License:     MIT
// ============================================================================

package tts

import (
	"strings"
	"unicode"
)

// SplitOptions controls chunking.
type SplitOptions struct {
	// MaxChars is the chunk ceiling in characters. Keep a margin below
	// the synthesis backend's hard limit.
	MaxChars int

	// FirstChunkSeconds, when positive, caps the first chunk to roughly
	// this many seconds of speech so playback starts sooner.
	FirstChunkSeconds float64

	// CharsPerSecond estimates spoken pace for first-chunk sizing.
	// Zero means the default of 15.
	CharsPerSecond float64
}

const defaultCharsPerSecond = 15

// SplitForSpeech splits text into ordered chunks, each at most MaxChars
// characters. It prefers to cut at a paragraph break, then a sentence end,
// then whitespace, and only as a last resort mid-word. Multi-byte
// characters are never split. Non-empty input always yields at least one
// chunk, and the chunks concatenate back to the input up to whitespace at
// the cut points.
func SplitForSpeech(text string, opts SplitOptions) []string {
	text = strings.TrimSpace(text)
	if text == "" || opts.MaxChars <= 0 {
		return nil
	}

	firstLimit := opts.MaxChars
	if opts.FirstChunkSeconds > 0 {
		pace := opts.CharsPerSecond
		if pace <= 0 {
			pace = defaultCharsPerSecond
		}
		if n := int(opts.FirstChunkSeconds * pace); n > 0 && n < firstLimit {
			firstLimit = n
		}
	}

	var chunks []string
	remaining := []rune(text)
	limit := firstLimit

	for len(remaining) > 0 {
		if len(remaining) <= limit {
			chunks = append(chunks, string(remaining))
			break
		}

		cut := splitPoint(remaining, limit)
		chunk := strings.TrimSpace(string(remaining[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = remaining[cut:]
		for len(remaining) > 0 && unicode.IsSpace(remaining[0]) {
			remaining = remaining[1:]
		}
		limit = opts.MaxChars
	}
	return chunks
}

// splitPoint finds where to cut runes so the first part stays within limit.
func splitPoint(runes []rune, limit int) int {
	// Paragraph break: cut after the blank line.
	for i := limit; i >= 1; i-- {
		if runes[i-1] == '\n' && runes[i] == '\n' {
			return i + 1
		}
	}

	// Sentence end: terminator followed by whitespace.
	for i := limit - 1; i >= 0; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}

	// Any whitespace.
	for i := limit; i >= 1; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}

	// Hard cut. Rune-indexed, so never inside a character.
	return limit
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}
