// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     vad
// Description: Silence-bounded utterance recording
// License:     MIT
// ============================================================================

package vad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

// ErrStreamClosed is returned when the frame source ends before recording
// captured any speech. The caller treats it as a capture failure.
var ErrStreamClosed = errors.New("frame stream closed")

// RecordOptions bounds one recording.
type RecordOptions struct {
	// SilenceDuration is how much trailing silence ends the utterance once
	// speech has been heard.
	SilenceDuration time.Duration

	// MaxDuration caps the whole recording regardless of classifier
	// output. Bounds worst-case latency and memory.
	MaxDuration time.Duration

	// FrameDuration of the incoming frames in milliseconds.
	FrameDuration int

	// SampleRate of the incoming frames.
	SampleRate int
}

// Recorder drives a classifier over a live frame stream to capture one
// bounded utterance.
type Recorder struct {
	classifier Classifier
}

// NewRecorder creates a recorder using the given classifier.
func NewRecorder(classifier Classifier) *Recorder {
	return &Recorder{classifier: classifier}
}

// Record consumes frames until the utterance ends. It counts frames rather
// than wall-clock time so behavior is exact for a given stream.
//
// Recording stops when the trailing silence exceeds SilenceDuration after at
// least one speech frame, or when MaxDuration worth of frames has been
// consumed. Leading silence is not part of the utterance, and the silence
// frame that triggers the stop is dropped. All-silence input yields
// ErrNoSpeech.
func (r *Recorder) Record(ctx context.Context, frames <-chan audio.Frame, opts RecordOptions) (*audio.Utterance, error) {
	if opts.FrameDuration <= 0 || opts.SilenceDuration <= 0 || opts.MaxDuration <= 0 {
		return nil, fmt.Errorf("recorder: durations must be positive")
	}

	frameDur := time.Duration(opts.FrameDuration) * time.Millisecond
	silenceThreshold := int(opts.SilenceDuration / frameDur)
	maxFrames := int(opts.MaxDuration / frameDur)

	utt := audio.NewUtterance(opts.SampleRate, frameDur)
	speechSeen := false
	trailingSilence := 0

	for seen := 0; seen < maxFrames; {
		var frame audio.Frame
		var ok bool
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case frame, ok = <-frames:
			if !ok {
				if speechSeen {
					return utt, nil
				}
				return nil, ErrStreamClosed
			}
		}
		seen++

		speech, err := r.classifier.IsSpeech(frame)
		if err != nil {
			return nil, fmt.Errorf("recorder: classify frame %d: %w", seen, err)
		}

		switch {
		case speech:
			speechSeen = true
			trailingSilence = 0
			utt.Append(frame)
		case speechSeen:
			if trailingSilence+1 > silenceThreshold {
				return utt, nil
			}
			trailingSilence++
			utt.Append(frame)
		default:
			// Leading silence, not recorded.
		}
	}

	if speechSeen {
		return utt, nil
	}
	return nil, ErrNoSpeech
}
