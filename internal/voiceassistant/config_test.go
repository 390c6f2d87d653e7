package voiceassistant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Wake.Phrase != "hey sandvoice" {
		t.Errorf("wake phrase = %q, want default", cfg.Wake.Phrase)
	}
	if cfg.Recording.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.Recording.SampleRate)
	}
	if !cfg.BargeIn.Enabled {
		t.Error("barge-in disabled by default")
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
wake:
  phrase: ok computer
recording:
  silence_seconds: 2.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Wake.Phrase != "ok computer" {
		t.Errorf("wake phrase = %q, want override", cfg.Wake.Phrase)
	}
	if cfg.Recording.SilenceSeconds != 2.5 {
		t.Errorf("silence_seconds = %v, want 2.5", cfg.Recording.SilenceSeconds)
	}
	// Untouched fields keep their defaults.
	if cfg.Recording.FrameDurationMs != 30 {
		t.Errorf("frame_duration_ms = %d, want default 30", cfg.Recording.FrameDurationMs)
	}
	if cfg.Speech.MaxChunkChars != 3800 {
		t.Errorf("max_chunk_chars = %d, want default 3800", cfg.Speech.MaxChunkChars)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad frame duration", "recording:\n  frame_duration_ms: 25\n"},
		{"bad sensitivity", "wake:\n  sensitivity: 2.0\n"},
		{"bad aggressiveness", "recording:\n  aggressiveness: 7\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() accepted invalid config")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	rec := RecordingConfig{SilenceSeconds: 1.5, MaxSeconds: 30}
	if got := rec.SilenceDuration(); got != 1500*time.Millisecond {
		t.Errorf("SilenceDuration() = %v, want 1.5s", got)
	}
	if got := rec.MaxDuration(); got != 30*time.Second {
		t.Errorf("MaxDuration() = %v, want 30s", got)
	}

	b := BargeInConfig{}
	if got := b.PollInterval(); got != 50*time.Millisecond {
		t.Errorf("PollInterval() zero value = %v, want 50ms", got)
	}
	if got := b.JoinTimeout(); got != 2*time.Second {
		t.Errorf("JoinTimeout() zero value = %v, want 2s", got)
	}
}

func TestEffectiveSystemPrompt(t *testing.T) {
	c := ChatConfig{SystemPrompt: "Be brief."}
	if got := c.EffectiveSystemPrompt(); got != "Be brief." {
		t.Errorf("EffectiveSystemPrompt() = %q, want unchanged prompt", got)
	}

	c.BotName = "Sandy"
	c.Location = "Toronto"
	c.Timezone = "America/Toronto"
	got := c.EffectiveSystemPrompt()
	for _, want := range []string{"Be brief.", "Sandy", "Toronto", "America/Toronto"} {
		if !strings.Contains(got, want) {
			t.Errorf("EffectiveSystemPrompt() = %q, missing %q", got, want)
		}
	}
}
