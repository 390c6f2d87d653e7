// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     audio
// Description: PCM frame types and device errors
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"time"
)

// Frame is one fixed-duration block of mono 16-bit PCM samples. Frames are
// immutable once produced; whoever reads one from a Source owns it until it
// is appended to an utterance or discarded.
type Frame []int16

// ValidFrameDurations are the frame lengths the classifier stack accepts.
var ValidFrameDurations = []int{10, 20, 30}

// ValidFrameDuration reports whether ms is an accepted frame duration.
func ValidFrameDuration(ms int) bool {
	for _, d := range ValidFrameDurations {
		if ms == d {
			return true
		}
	}
	return false
}

// FrameSize returns the number of samples in one frame of frameMs
// milliseconds at the given sample rate.
func FrameSize(sampleRate, frameMs int) int {
	return sampleRate * frameMs / 1000
}

// Source delivers capture frames to a consumer. The channel is closed when
// the underlying device stops.
type Source interface {
	Frames() <-chan Frame
}

// DeviceError reports that an audio device could not be acquired or driven.
// Callers degrade to a reduced mode instead of terminating.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Utterance is one bounded user speech capture, from onset to detected
// end-of-speech. It holds the ordered frames collected during LISTENING.
type Utterance struct {
	SampleRate    int
	FrameDuration time.Duration
	frames        []Frame
}

// NewUtterance creates an empty utterance for the given stream parameters.
func NewUtterance(sampleRate int, frameDuration time.Duration) *Utterance {
	return &Utterance{
		SampleRate:    sampleRate,
		FrameDuration: frameDuration,
	}
}

// Append adds one frame to the utterance.
func (u *Utterance) Append(f Frame) {
	u.frames = append(u.frames, f)
}

// Len returns the number of frames captured.
func (u *Utterance) Len() int {
	return len(u.frames)
}

// Duration returns the total captured duration.
func (u *Utterance) Duration() time.Duration {
	return time.Duration(len(u.frames)) * u.FrameDuration
}

// PCM returns the utterance as one contiguous sample slice.
func (u *Utterance) PCM() []int16 {
	var n int
	for _, f := range u.frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range u.frames {
		out = append(out, f...)
	}
	return out
}

// Clear drops all frames. Called after the utterance is handed off.
func (u *Utterance) Clear() {
	u.frames = nil
}
