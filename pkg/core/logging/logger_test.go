package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if got := LevelWarn.String(); got != "warn" {
		t.Errorf("String() = %q, want %q", got, "warn")
	}
	if got := Level(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want %q", got, "unknown")
	}
}

func TestLoggerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	logger := New("recorder")
	logger.Info("utterance captured", "frames", 115)

	out := buf.String()
	if !strings.Contains(out, "component=recorder") {
		t.Errorf("output missing component field: %q", out)
	}
	if !strings.Contains(out, "utterance captured") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "frames=115") {
		t.Errorf("output missing key-value pair: %q", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	logger := New("vad").WithLevel(LevelWarn)
	logger.Info("should be dropped")
	logger.Warn("should be kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info entry not filtered: %q", out)
	}
	if !strings.Contains(out, "should be kept") {
		t.Errorf("warn entry missing: %q", out)
	}
}
