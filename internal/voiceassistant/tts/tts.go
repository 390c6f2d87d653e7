// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     tts
// Description: Text-to-speech contracts
// License:     MIT
// ============================================================================

// Package tts turns response text into playable audio: it splits text into
// segments a synthesis service will accept and synthesizes each one.
package tts

import (
	"context"
	"fmt"
)

// Synthesizer is the interface for text-to-speech backends.
type Synthesizer interface {
	// Synthesize converts one text chunk to WAV audio. Inputs above
	// MaxInputChars are rejected with *SynthesisError.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// MaxInputChars is the backend's hard input ceiling in characters.
	MaxInputChars() int

	// Close releases resources.
	Close() error
}

// SynthesisError reports a failed synthesis. The playback layer reacts by
// finishing the turn in text-only mode.
type SynthesisError struct {
	TextLen int
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (%d chars): %v", e.TextLen, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
