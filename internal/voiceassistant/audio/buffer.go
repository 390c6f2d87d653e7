// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     audio
// Description: Sample and ring buffers
// License:     MIT
// ============================================================================

package audio

import (
	"sync"
	"time"
)

// SampleBuffer is a growing buffer for collecting PCM samples.
type SampleBuffer struct {
	mu      sync.RWMutex
	samples []int16
}

// NewSampleBuffer creates a sample buffer pre-sized for about ten seconds
// of 16kHz audio.
func NewSampleBuffer() *SampleBuffer {
	return &SampleBuffer{
		samples: make([]int16, 0, 16000*10),
	}
}

// Append adds samples to the buffer.
func (b *SampleBuffer) Append(samples []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// Get returns a copy of all samples.
func (b *SampleBuffer) Get() []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]int16, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of samples.
func (b *SampleBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Duration returns the buffered duration at the given sample rate.
func (b *SampleBuffer) Duration(sampleRate int) time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.samples)) * time.Second / time.Duration(sampleRate)
}

// Clear empties the buffer, keeping its capacity.
func (b *SampleBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}

// TrimToSize drops the oldest samples so at most maxSamples remain.
func (b *SampleBuffer) TrimToSize(maxSamples int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.samples) > maxSamples {
		b.samples = b.samples[len(b.samples)-maxSamples:]
	}
}

// RingBuffer is a fixed-capacity ring of float64 values. The wake word
// detector uses it as a rolling window of per-frame energies.
type RingBuffer struct {
	mu       sync.RWMutex
	data     []float64
	size     int
	writePos int
	count    int
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		data: make([]float64, capacity),
		size: capacity,
	}
}

// Push appends one value, overwriting the oldest when full.
func (rb *RingBuffer) Push(v float64) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.data[rb.writePos] = v
	rb.writePos = (rb.writePos + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// Snapshot returns the buffered values ordered oldest to newest.
func (rb *RingBuffer) Snapshot() []float64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	out := make([]float64, rb.count)
	pos := rb.writePos - rb.count
	if pos < 0 {
		pos += rb.size
	}
	for i := 0; i < rb.count; i++ {
		out[i] = rb.data[pos]
		pos = (pos + 1) % rb.size
	}
	return out
}

// Len returns the number of buffered values.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *RingBuffer) Cap() int {
	return rb.size
}

// IsFull reports whether the window has filled once.
func (rb *RingBuffer) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count == rb.size
}

// Clear resets the buffer.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.writePos = 0
	rb.count = 0
}
