// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     audio
// Description: Sine-wave cue tone generation
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"math"
	"time"
)

// ToneConfig describes a generated cue tone.
type ToneConfig struct {
	Freq       float64
	Duration   time.Duration
	SampleRate int
	Volume     float64
}

// DefaultConfirmationTone is the wake confirmation beep played on the
// IDLE -> LISTENING transition.
func DefaultConfirmationTone(sampleRate int) ToneConfig {
	return ToneConfig{
		Freq:       800,
		Duration:   100 * time.Millisecond,
		SampleRate: sampleRate,
		Volume:     0.3,
	}
}

// DefaultAckTone is the short earcon played when an utterance has been
// captured and PROCESSING begins.
func DefaultAckTone(sampleRate int) ToneConfig {
	return ToneConfig{
		Freq:       600,
		Duration:   60 * time.Millisecond,
		SampleRate: sampleRate,
		Volume:     0.3,
	}
}

// SineTone generates mono 16-bit PCM for the configured tone.
func SineTone(cfg ToneConfig) ([]int16, error) {
	if cfg.Freq <= 0 {
		return nil, fmt.Errorf("tone freq must be positive, got %v", cfg.Freq)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("tone duration must be positive, got %v", cfg.Duration)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("tone sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, fmt.Errorf("tone volume must be in [0,1], got %v", cfg.Volume)
	}

	n := int(float64(cfg.SampleRate) * cfg.Duration.Seconds())
	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(cfg.SampleRate)
		v := cfg.Volume * math.Sin(2*math.Pi*cfg.Freq*t) * 32767
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		pcm[i] = int16(v)
	}
	return pcm, nil
}
