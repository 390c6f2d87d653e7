package wakeword

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

func loudFrame(size int) audio.Frame {
	f := make(audio.Frame, size)
	for i := range f {
		f[i] = 5000
	}
	return f
}

func quietFrame(size int) audio.Frame {
	f := make(audio.Frame, size)
	for i := range f {
		f[i] = 2
	}
	return f
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(Config{
		Phrase:        "hey test",
		Sensitivity:   0.5,
		SampleRate:    16000,
		FrameDuration: 20,
	})
	if err != nil {
		t.Fatalf("NewDetector() error: %v", err)
	}
	return d
}

// feed pushes n frames and reports whether any triggered a detection.
func feed(d *Detector, frame audio.Frame, n int) bool {
	for i := 0; i < n; i++ {
		if d.Feed(frame) {
			return true
		}
	}
	return false
}

func TestCompileModelSyllables(t *testing.T) {
	cases := []struct {
		phrase string
		bursts int
	}{
		{"hey test", 2},
		{"computer", 3},
		{"ok", 1},
	}
	for _, tc := range cases {
		m, err := CompileModel(tc.phrase)
		if err != nil {
			t.Fatalf("CompileModel(%q) error: %v", tc.phrase, err)
		}
		if m.Bursts != tc.bursts {
			t.Errorf("CompileModel(%q).Bursts = %d, want %d", tc.phrase, m.Bursts, tc.bursts)
		}
		if m.MinDuration >= m.MaxDuration {
			t.Errorf("CompileModel(%q) window [%v, %v] inverted", tc.phrase, m.MinDuration, m.MaxDuration)
		}
	}
}

func TestCompileModelRejectsEmpty(t *testing.T) {
	if _, err := CompileModel("   "); err == nil {
		t.Error("CompileModel(blank) succeeded, want error")
	}
}

func TestDetectorFiresOnTwoBurstPhrase(t *testing.T) {
	d := newTestDetector(t)
	size := audio.FrameSize(16000, 20)

	// Ambient warm-up, then two bursts with a short gap, then silence.
	if feed(d, quietFrame(size), 20) {
		t.Fatal("detection during ambient silence")
	}
	if feed(d, loudFrame(size), 8) {
		t.Fatal("detection during first burst")
	}
	if feed(d, quietFrame(size), 3) {
		t.Fatal("detection during inter-word gap")
	}
	if feed(d, loudFrame(size), 8) {
		t.Fatal("detection during second burst")
	}
	if !feed(d, quietFrame(size), 3) {
		t.Error("no detection after completed phrase")
	}
}

func TestDetectorIgnoresSingleBurst(t *testing.T) {
	d := newTestDetector(t)
	size := audio.FrameSize(16000, 20)

	feed(d, quietFrame(size), 20)
	feed(d, loudFrame(size), 8)
	if feed(d, quietFrame(size), 10) {
		t.Error("single burst triggered a two-burst model")
	}
}

func TestDetectorDoesNotRefireOnClearedWindow(t *testing.T) {
	d := newTestDetector(t)
	size := audio.FrameSize(16000, 20)

	feed(d, quietFrame(size), 20)
	feed(d, loudFrame(size), 8)
	feed(d, quietFrame(size), 3)
	feed(d, loudFrame(size), 8)
	if !feed(d, quietFrame(size), 3) {
		t.Fatal("no initial detection")
	}
	// Silence after a detection must not retrigger from stale audio.
	if feed(d, quietFrame(size), 20) {
		t.Error("detector refired on cleared window")
	}
}

func TestNewDetectorRejectsBadSensitivity(t *testing.T) {
	_, err := NewDetector(Config{Phrase: "hey", Sensitivity: 1.5, SampleRate: 16000, FrameDuration: 20})
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("NewDetector() error = %v, want *InitError", err)
	}
}

func TestNewDetectorRejectsMissingModelFile(t *testing.T) {
	_, err := NewDetector(Config{
		ModelPath:     filepath.Join(t.TempDir(), "absent.yaml"),
		Sensitivity:   0.5,
		SampleRate:    16000,
		FrameDuration: 20,
	})
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("NewDetector() error = %v, want *InitError", err)
	}
}

func TestLoadModelFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	content := "phrase: hey sandvoice\nbursts: 4\nmin_duration: 400ms\nmax_duration: 1600ms\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error: %v", err)
	}
	if m.Bursts != 4 {
		t.Errorf("Bursts = %d, want 4", m.Bursts)
	}
	if m.MinDuration != 400*time.Millisecond {
		t.Errorf("MinDuration = %v, want 400ms", m.MinDuration)
	}
}

func TestLoadModelRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte("phrase: x\nbursts: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(path); err == nil {
		t.Error("LoadModel() accepted zero bursts")
	}
}
