package audio

import (
	"testing"
	"time"
)

func TestSampleBufferAppendAndTrim(t *testing.T) {
	b := NewSampleBuffer()
	b.Append([]int16{1, 2, 3})
	b.Append([]int16{4, 5})

	if got := b.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	b.TrimToSize(3)
	got := b.Get()
	want := []int16{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("after trim got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", b.Len())
	}
}

func TestSampleBufferDuration(t *testing.T) {
	b := NewSampleBuffer()
	b.Append(make([]int16, 16000))
	if got := b.Duration(16000); got != time.Second {
		t.Errorf("Duration(16000) = %v, want 1s", got)
	}
	if got := b.Duration(0); got != 0 {
		t.Errorf("Duration(0) = %v, want 0", got)
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		rb.Push(float64(i))
	}

	if !rb.IsFull() {
		t.Error("IsFull() = false after overfilling")
	}
	got := rb.Snapshot()
	want := []float64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() has %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRingBufferPartial(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Push(7)
	rb.Push(8)

	if rb.IsFull() {
		t.Error("IsFull() = true with 2 of 4 values")
	}
	got := rb.Snapshot()
	if len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Errorf("Snapshot() = %v, want [7 8]", got)
	}

	rb.Clear()
	if rb.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", rb.Len())
	}
}

func TestUtteranceAccumulates(t *testing.T) {
	u := NewUtterance(16000, 30*time.Millisecond)
	u.Append(Frame{1, 2})
	u.Append(Frame{3})

	if got := u.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := u.Duration(); got != 60*time.Millisecond {
		t.Errorf("Duration() = %v, want 60ms", got)
	}
	pcm := u.PCM()
	want := []int16{1, 2, 3}
	if len(pcm) != len(want) {
		t.Fatalf("PCM() has %d samples, want %d", len(pcm), len(want))
	}
	for i := range want {
		if pcm[i] != want[i] {
			t.Errorf("PCM()[%d] = %d, want %d", i, pcm[i], want[i])
		}
	}
}
