package audio

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu       sync.Mutex
	started  int
	stopped  int
	rate     int
	writes   [][]int16
	writeErr error

	// gate, when set, is received from before each write returns. Lets a
	// test hold playback mid-segment.
	gate chan struct{}
}

func (s *fakeSink) Start(sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	s.rate = sampleRate
	return nil
}

func (s *fakeSink) Write(pcm []int16) error {
	s.mu.Lock()
	cp := make([]int16, len(pcm))
	copy(cp, pcm)
	s.writes = append(s.writes, cp)
	err := s.writeErr
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (s *fakeSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func (s *fakeSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *fakeSink) totalSamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, w := range s.writes {
		n += len(w)
	}
	return n
}

func testConfig() PipelineConfig {
	return PipelineConfig{
		QueueDepth:   2,
		WriteChunk:   10 * time.Millisecond,
		SegmentPause: 0,
	}
}

func TestPipelinePlaysSegmentsInOrder(t *testing.T) {
	sink := &fakeSink{}
	p := NewPipeline(sink, testConfig())

	// Two chunks each at 16kHz and a 10ms write chunk.
	for i := 0; i < 3; i++ {
		ok := p.Enqueue(Segment{Index: i, PCM: make([]int16, 320), SampleRate: 16000})
		if !ok {
			t.Fatalf("Enqueue(%d) = false, want true", i)
		}
	}
	res := p.DrainAndClose()

	if res.Played != 3 {
		t.Errorf("Played = %d, want 3", res.Played)
	}
	if res.Stopped || res.TextOnly {
		t.Errorf("Stopped = %v, TextOnly = %v, want both false", res.Stopped, res.TextOnly)
	}
	if sink.totalSamples() != 3*320 {
		t.Errorf("sink received %d samples, want %d", sink.totalSamples(), 3*320)
	}
	if sink.started != 1 || sink.stopped != 1 {
		t.Errorf("started = %d, stopped = %d, want 1 and 1", sink.started, sink.stopped)
	}
}

func TestPipelineStopNowCutsWithinOneChunk(t *testing.T) {
	sink := &fakeSink{gate: make(chan struct{})}
	p := NewPipeline(sink, testConfig())

	// One long segment: 10 chunks of 160 samples.
	p.Enqueue(Segment{Index: 0, PCM: make([]int16, 1600), SampleRate: 16000})

	// Let two writes through, stop mid-third, then release everything.
	sink.gate <- struct{}{}
	sink.gate <- struct{}{}
	p.StopNow()
	close(sink.gate)

	res := p.DrainAndClose()
	if !res.Stopped {
		t.Error("Stopped = false after StopNow")
	}
	if res.Played != 0 {
		t.Errorf("Played = %d, want 0 for interrupted segment", res.Played)
	}
	// The write in flight when StopNow fired may complete, nothing after.
	if n := sink.writeCount(); n > 3 {
		t.Errorf("sink saw %d writes after stop, want at most 3", n)
	}
}

func TestPipelineStopNowIsIdempotent(t *testing.T) {
	p := NewPipeline(&fakeSink{}, testConfig())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.StopNow()
		}()
	}
	wg.Wait()

	if ok := p.Enqueue(Segment{Index: 0, PCM: make([]int16, 160), SampleRate: 16000}); ok {
		t.Error("Enqueue after StopNow = true, want false")
	}
	res := p.DrainAndClose()
	if !res.Stopped {
		t.Error("Stopped = false")
	}
}

func TestPipelineSynthesisFailureGoesTextOnly(t *testing.T) {
	sink := &fakeSink{}
	p := NewPipeline(sink, testConfig())

	p.Enqueue(Segment{Index: 0, PCM: make([]int16, 160), SampleRate: 16000})
	p.Enqueue(Segment{Index: 1, Text: "second part", Err: errors.New("synthesis failed")})
	p.Enqueue(Segment{Index: 2, PCM: make([]int16, 160), SampleRate: 16000})
	res := p.DrainAndClose()

	if !res.TextOnly {
		t.Error("TextOnly = false after failed segment")
	}
	if res.Played != 1 {
		t.Errorf("Played = %d, want 1", res.Played)
	}
	// The segment after the failure must not reach the sink.
	if sink.totalSamples() != 160 {
		t.Errorf("sink received %d samples, want 160", sink.totalSamples())
	}
}

func TestPipelineSinkWriteErrorGoesTextOnly(t *testing.T) {
	sink := &fakeSink{writeErr: errors.New("device gone")}
	p := NewPipeline(sink, testConfig())

	p.Enqueue(Segment{Index: 0, PCM: make([]int16, 160), SampleRate: 16000})
	p.Enqueue(Segment{Index: 1, PCM: make([]int16, 160), SampleRate: 16000})
	res := p.DrainAndClose()

	if !res.TextOnly {
		t.Error("TextOnly = false after sink write error")
	}
	if res.Stopped {
		t.Error("Stopped = true, want false")
	}
}

func TestPipelineEmptyTurn(t *testing.T) {
	sink := &fakeSink{}
	p := NewPipeline(sink, testConfig())
	res := p.DrainAndClose()

	if res.Played != 0 || res.Stopped || res.TextOnly {
		t.Errorf("empty turn result = %+v, want zero value", res)
	}
	if sink.started != 0 {
		t.Errorf("sink started %d times on empty turn, want 0", sink.started)
	}
}
