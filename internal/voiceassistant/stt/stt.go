// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     stt
// Description: Speech-to-text contracts
// License:     MIT
// ============================================================================

// Package stt transcribes recorded utterances to text.
package stt

import "context"

// Transcriber converts utterance audio into text. The audio is a complete
// WAV file. languageHint may be empty for auto-detection.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte, languageHint string) (string, error)
	Close() error
}
