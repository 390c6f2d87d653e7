package tts

import (
	"strings"
	"testing"
)

func TestSplitShortTextIsOneChunk(t *testing.T) {
	text := "Just a short answer."
	chunks := SplitForSpeech(text, SplitOptions{MaxChars: 3800})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk = %q, want %q", chunks[0], text)
	}
}

func TestSplitEmptyText(t *testing.T) {
	if chunks := SplitForSpeech("   \n ", SplitOptions{MaxChars: 100}); chunks != nil {
		t.Errorf("got %v, want nil", chunks)
	}
}

func TestSplitLongTextAtSentenceBoundaries(t *testing.T) {
	// 60 sentences of ~150 characters each, about 9000 in total.
	sentence := strings.Repeat("word ", 29) + "end."
	var b strings.Builder
	for i := 0; i < 60; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(sentence)
	}
	text := b.String()

	chunks := SplitForSpeech(text, SplitOptions{MaxChars: 3800})
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 3800 {
			t.Errorf("chunk %d has %d chars, over the 3800 limit", i, len([]rune(c)))
		}
		if !strings.HasSuffix(c, "end.") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, c[len(c)-20:])
		}
	}

	// Concatenation reconstructs the text up to whitespace at the cuts.
	joined := strings.Join(chunks, " ")
	if joined != text {
		t.Error("concatenated chunks do not reconstruct the input")
	}
}

func TestSplitPrefersParagraphBreak(t *testing.T) {
	para1 := strings.Repeat("a", 50)
	para2 := strings.Repeat("b", 50)
	text := para1 + "\n\n" + para2

	chunks := SplitForSpeech(text, SplitOptions{MaxChars: 80})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != para1 {
		t.Errorf("chunk 0 = %q, want first paragraph", chunks[0])
	}
	if chunks[1] != para2 {
		t.Errorf("chunk 1 = %q, want second paragraph", chunks[1])
	}
}

func TestSplitFallsBackToWhitespace(t *testing.T) {
	text := strings.Repeat("word ", 40) // no sentence ends
	chunks := SplitForSpeech(text, SplitOptions{MaxChars: 60})
	for i, c := range chunks {
		if len([]rune(c)) > 60 {
			t.Errorf("chunk %d has %d chars, over the limit", i, len([]rune(c)))
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d has boundary whitespace: %q", i, c)
		}
	}
	if got := strings.Join(chunks, " "); got != strings.TrimSpace(text) {
		t.Error("concatenated chunks do not reconstruct the input")
	}
}

func TestSplitHardCutIsRuneSafe(t *testing.T) {
	// No whitespace anywhere forces hard cuts; ü is multi-byte.
	text := strings.Repeat("grüß", 30)
	chunks := SplitForSpeech(text, SplitOptions{MaxChars: 25})
	var total string
	for i, c := range chunks {
		if len([]rune(c)) > 25 {
			t.Errorf("chunk %d has %d chars, over the limit", i, len([]rune(c)))
		}
		total += c
	}
	if total != text {
		t.Error("hard cuts lost characters")
	}
}

func TestSplitFirstChunkTargetsSpokenDuration(t *testing.T) {
	sentence := "This sentence runs about eighty characters to give the splitter a boundary. "
	text := strings.Repeat(sentence, 40)

	chunks := SplitForSpeech(text, SplitOptions{
		MaxChars:          3800,
		FirstChunkSeconds: 6,
		CharsPerSecond:    15,
	})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	// ~6s at 15 chars/s caps the opening chunk at 90 chars.
	if got := len([]rune(chunks[0])); got > 90 {
		t.Errorf("first chunk has %d chars, want at most 90", got)
	}
	for i, c := range chunks[1:] {
		if len([]rune(c)) > 3800 {
			t.Errorf("chunk %d has %d chars, over the limit", i+1, len([]rune(c)))
		}
	}
}
