// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     wakeword
// Description: Background wake phrase listener
// License:     MIT
// ============================================================================

package wakeword

import (
	"context"
	"sync"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// Stream is the input device a listener drives. audio.Capture satisfies it.
type Stream interface {
	audio.Source
	Start(ctx context.Context) error
	Stop() error
}

// FrameDetector is the detection seam the listener feeds. *Detector
// satisfies it.
type FrameDetector interface {
	Feed(frame audio.Frame) bool
	Reset()
}

// Listener runs a detector against its own input stream and fires a
// one-shot event on detection. Used for barge-in during PROCESSING and
// RESPONDING; the listener owns its device exclusively and releases it when
// stopped.
type Listener struct {
	detector FrameDetector
	stream   Stream
	logger   *logging.Logger

	detected chan struct{}
	once     sync.Once

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewListener creates a listener feeding stream frames to detector.
func NewListener(detector FrameDetector, stream Stream) *Listener {
	return &Listener{
		detector: detector,
		stream:   stream,
		logger:   logging.New("wakeword.listener"),
		detected: make(chan struct{}),
	}
}

// Detected is closed once when the wake phrase is heard.
func (l *Listener) Detected() <-chan struct{} {
	return l.detected
}

// Start opens the stream and begins feeding the detector. A stream that
// cannot be opened disables this listener; the error is returned so the
// owner can log the degraded path.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := l.stream.Start(ctx); err != nil {
		cancel()
		return err
	}

	l.cancel = cancel
	l.running = true
	l.detector.Reset()
	l.wg.Add(1)
	go l.listen()
	return nil
}

func (l *Listener) listen() {
	defer l.wg.Done()
	for frame := range l.stream.Frames() {
		if l.detector.Feed(frame) {
			l.logger.Debug("wake phrase detected")
			l.once.Do(func() { close(l.detected) })
			return
		}
	}
}

// Stop halts the listener, releases its device, and waits for the feeding
// goroutine to exit. Safe to call more than once and after a detection.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	if err := l.stream.Stop(); err != nil {
		l.logger.Warn("stream stop failed", "error", err)
	}
	l.wg.Wait()
}
