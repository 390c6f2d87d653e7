// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection contracts
// License:     MIT
// ============================================================================

// Package vad classifies audio frames as speech or silence and records
// bounded utterances from a live frame stream.
package vad

import (
	"errors"
	"fmt"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

// ErrNoSpeech is returned when recording reached its duration cap without a
// single speech frame.
var ErrNoSpeech = errors.New("no speech detected")

// Classifier decides per frame whether it contains speech.
type Classifier interface {
	IsSpeech(frame audio.Frame) (bool, error)
}

// Config holds classifier settings.
type Config struct {
	// SampleRate of the frames fed to the classifier. Must be one of
	// 8000, 16000, 32000 or 48000.
	SampleRate int

	// Mode is the aggressiveness, 0 (permissive) to 3 (strict). Higher
	// modes miss quiet speech but reject noise more reliably.
	Mode int

	// FrameDuration in milliseconds. Must be 10, 20 or 30.
	FrameDuration int
}

// validSampleRates the WebRTC engine accepts.
var validSampleRates = []int{8000, 16000, 32000, 48000}

// Validate checks the configuration against the engine's constraints.
func (c Config) Validate() error {
	ok := false
	for _, r := range validSampleRates {
		if c.SampleRate == r {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("vad: invalid sample rate %d, must be one of %v",
			c.SampleRate, validSampleRates)
	}
	if !audio.ValidFrameDuration(c.FrameDuration) {
		return fmt.Errorf("vad: invalid frame duration %dms, must be one of %v",
			c.FrameDuration, audio.ValidFrameDurations)
	}
	return nil
}
