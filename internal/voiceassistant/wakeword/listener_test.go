package wakeword

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

type fakeStream struct {
	frames chan audio.Frame

	mu       sync.Mutex
	started  int
	stopped  int
	startErr error
}

func (s *fakeStream) Frames() <-chan audio.Frame { return s.frames }

func (s *fakeStream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.started++
	return nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped == 0 {
		close(s.frames)
	}
	s.stopped++
	return nil
}

func TestListenerFiresOnceOnDetection(t *testing.T) {
	d := newTestDetector(t)
	size := audio.FrameSize(16000, 20)
	stream := &fakeStream{frames: make(chan audio.Frame, 64)}

	l := NewListener(d, stream)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	push := func(f audio.Frame, n int) {
		for i := 0; i < n; i++ {
			stream.frames <- f
		}
	}
	push(quietFrame(size), 20)
	push(loudFrame(size), 8)
	push(quietFrame(size), 3)
	push(loudFrame(size), 8)
	push(quietFrame(size), 3)

	select {
	case <-l.Detected():
	case <-time.After(2 * time.Second):
		t.Fatal("Detected() never fired")
	}

	l.Stop()
	if stream.stopped == 0 {
		t.Error("stream was not stopped")
	}
}

func TestListenerStopReleasesStream(t *testing.T) {
	d := newTestDetector(t)
	stream := &fakeStream{frames: make(chan audio.Frame, 4)}

	l := NewListener(d, stream)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	l.Stop()
	l.Stop() // second call is a no-op

	if stream.stopped != 1 {
		t.Errorf("stream stopped %d times, want 1", stream.stopped)
	}
	select {
	case <-l.Detected():
		t.Error("Detected() fired without a wake phrase")
	default:
	}
}

func TestListenerStartFailurePropagates(t *testing.T) {
	d := newTestDetector(t)
	boom := errors.New("device busy")
	stream := &fakeStream{frames: make(chan audio.Frame), startErr: boom}

	l := NewListener(d, stream)
	if err := l.Start(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Start() error = %v, want %v", err, boom)
	}
}
