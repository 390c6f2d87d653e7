package audio

import (
	"testing"
	"time"
)

func TestSineToneLength(t *testing.T) {
	pcm, err := SineTone(DefaultConfirmationTone(16000))
	if err != nil {
		t.Fatalf("SineTone() error: %v", err)
	}
	// 100ms at 16kHz
	if got := len(pcm); got != 1600 {
		t.Errorf("len(pcm) = %d, want 1600", got)
	}
}

func TestSineToneStartsNearZero(t *testing.T) {
	pcm, err := SineTone(ToneConfig{Freq: 440, Duration: 10 * time.Millisecond, SampleRate: 16000, Volume: 0.5})
	if err != nil {
		t.Fatalf("SineTone() error: %v", err)
	}
	if pcm[0] != 0 {
		t.Errorf("pcm[0] = %d, want 0", pcm[0])
	}
	var peak int16
	for _, s := range pcm {
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		t.Error("tone is silent")
	}
	if peak > 16384 {
		t.Errorf("peak %d exceeds half-scale at volume 0.5", peak)
	}
}

func TestSineToneRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  ToneConfig
	}{
		{"zero freq", ToneConfig{Freq: 0, Duration: time.Millisecond, SampleRate: 16000, Volume: 0.3}},
		{"zero duration", ToneConfig{Freq: 800, Duration: 0, SampleRate: 16000, Volume: 0.3}},
		{"zero rate", ToneConfig{Freq: 800, Duration: time.Millisecond, SampleRate: 0, Volume: 0.3}},
		{"volume too high", ToneConfig{Freq: 800, Duration: time.Millisecond, SampleRate: 16000, Volume: 1.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := SineTone(tc.cfg); err == nil {
				t.Error("SineTone() succeeded, want error")
			}
		})
	}
}
