// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD classifier
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

// WebRTCVAD classifies frames with the WebRTC voice activity engine.
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameSize  int
}

// NewWebRTCVAD creates a classifier for the given configuration. The mode is
// clamped to the engine's 0..3 range.
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("vad: create engine: %w", err)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("vad: set mode %d: %w", mode, err)
	}

	return &WebRTCVAD{
		vad:        vad,
		sampleRate: cfg.SampleRate,
		frameSize:  audio.FrameSize(cfg.SampleRate, cfg.FrameDuration),
	}, nil
}

// IsSpeech reports whether the frame contains speech. The frame must match
// the configured duration exactly.
func (w *WebRTCVAD) IsSpeech(frame audio.Frame) (bool, error) {
	if len(frame) != w.frameSize {
		return false, fmt.Errorf("vad: frame has %d samples, want %d", len(frame), w.frameSize)
	}
	active, err := w.vad.Process(w.sampleRate, int16ToBytes(frame))
	if err != nil {
		return false, fmt.Errorf("vad: process frame: %w", err)
	}
	return active, nil
}

// int16ToBytes converts samples to the little-endian byte layout the engine
// expects.
func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
