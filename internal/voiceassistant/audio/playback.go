// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     audio
// Description: Interruptible segment playback pipeline
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// Segment is one unit of synthesized speech queued for playback. Segments
// carry their index so ordering violations are detectable, and the text they
// were rendered from so a failed segment can still be shown to the user.
type Segment struct {
	Index      int
	Text       string
	PCM        []int16
	SampleRate int

	// Err is set when synthesis failed for this segment. The pipeline
	// plays nothing for it and switches the rest of the turn to text-only
	// delivery.
	Err error
}

// Sink is the playback device. The production implementation wraps
// PortAudio; tests substitute a fake.
type Sink interface {
	Start(sampleRate int) error
	Write(pcm []int16) error
	Stop() error
}

// Result summarizes one playback turn.
type Result struct {
	// Played is the number of segments fully written to the sink.
	Played int

	// TextOnly is true when a synthesis failure downgraded the turn to
	// text delivery partway through.
	TextOnly bool

	// Stopped is true when StopNow interrupted the turn.
	Stopped bool
}

// PipelineConfig tunes pipeline behavior.
type PipelineConfig struct {
	// QueueDepth is how many segments may be buffered ahead of playback.
	// Enqueue blocks once the queue is full so synthesis does not run
	// arbitrarily far ahead of the audible position.
	QueueDepth int

	// WriteChunk is the longest stretch of audio handed to the sink in
	// one write. Smaller chunks mean faster reaction to StopNow.
	WriteChunk time.Duration

	// SegmentPause is the silence inserted between consecutive segments.
	SegmentPause time.Duration
}

// DefaultPipelineConfig returns pipeline settings with stop latency well
// under a quarter second.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		QueueDepth:   2,
		WriteChunk:   100 * time.Millisecond,
		SegmentPause: 120 * time.Millisecond,
	}
}

// Pipeline plays queued segments in order on a single goroutine. Playback
// can be cut at any moment with StopNow, which takes effect within one write
// chunk. A pipeline serves one response turn; create a new one per turn.
// Enqueue and DrainAndClose belong to the producing goroutine; StopNow may
// be called from anywhere.
type Pipeline struct {
	config PipelineConfig
	sink   Sink
	logger *logging.Logger

	queue chan Segment
	stop  chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	stopped  bool
	closed   bool
	played   int
	textOnly bool
}

// NewPipeline starts a playback pipeline writing to sink.
func NewPipeline(sink Sink, config PipelineConfig) *Pipeline {
	if config.QueueDepth <= 0 {
		config.QueueDepth = 2
	}
	if config.WriteChunk <= 0 {
		config.WriteChunk = 100 * time.Millisecond
	}
	p := &Pipeline{
		config: config,
		sink:   sink,
		logger: logging.New("audio.playback"),
		queue:  make(chan Segment, config.QueueDepth),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.playLoop()
	return p
}

// Enqueue adds a segment to the playback queue. It blocks while the queue is
// full and returns false once the pipeline has been stopped or closed.
func (p *Pipeline) Enqueue(seg Segment) bool {
	p.mu.Lock()
	if p.closed || p.stopped {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	select {
	case p.queue <- seg:
		return true
	case <-p.stop:
		return false
	}
}

// StopNow aborts playback immediately. Queued segments are discarded and the
// current write finishes within one chunk. Safe to call concurrently and
// more than once.
func (p *Pipeline) StopNow() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stop)
	p.mu.Unlock()
	p.logger.Debug("playback stop requested")
}

// DrainAndClose signals that no more segments are coming, waits for playback
// to finish, and returns the turn summary.
func (p *Pipeline) DrainAndClose() Result {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	return Result{Played: p.played, TextOnly: p.textOnly, Stopped: p.stopped}
}

func (p *Pipeline) playLoop() {
	defer close(p.done)

	started := false
	defer func() {
		if started {
			if err := p.sink.Stop(); err != nil {
				p.logger.Warn("sink stop failed", "error", err)
			}
		}
	}()

	for {
		var seg Segment
		var ok bool
		select {
		case <-p.stop:
			return
		case seg, ok = <-p.queue:
			if !ok {
				return
			}
		}

		if seg.Err != nil {
			// One failed segment downgrades the rest of the turn so the
			// user does not hear speech with silent gaps in it.
			p.mu.Lock()
			p.textOnly = true
			p.mu.Unlock()
			p.logger.Warn("segment synthesis failed, switching to text delivery",
				"segment", seg.Index, "error", seg.Err)
			continue
		}

		p.mu.Lock()
		textOnly := p.textOnly
		p.mu.Unlock()
		if textOnly || len(seg.PCM) == 0 {
			continue
		}

		if !started {
			if err := p.sink.Start(seg.SampleRate); err != nil {
				p.logger.Error("sink start failed", "error", err)
				p.mu.Lock()
				p.textOnly = true
				p.mu.Unlock()
				continue
			}
			started = true
		}

		completed, interrupted := p.writeSegment(seg)
		if interrupted {
			return
		}
		if completed {
			p.mu.Lock()
			p.played++
			p.mu.Unlock()
		}

		if p.config.SegmentPause > 0 {
			select {
			case <-p.stop:
				return
			case <-time.After(p.config.SegmentPause):
			}
		}
	}
}

// writeSegment streams one segment to the sink in short chunks, checking for
// a stop between chunks.
func (p *Pipeline) writeSegment(seg Segment) (completed, interrupted bool) {
	chunk := int(float64(seg.SampleRate) * p.config.WriteChunk.Seconds())
	if chunk <= 0 {
		chunk = len(seg.PCM)
	}

	for off := 0; off < len(seg.PCM); off += chunk {
		select {
		case <-p.stop:
			return false, true
		default:
		}

		end := off + chunk
		if end > len(seg.PCM) {
			end = len(seg.PCM)
		}
		if err := p.sink.Write(seg.PCM[off:end]); err != nil {
			p.logger.Error("sink write failed", "segment", seg.Index, "error", err)
			p.mu.Lock()
			p.textOnly = true
			p.mu.Unlock()
			return false, false
		}
	}
	return true, false
}

// PortAudioSink plays 16-bit mono PCM through the default output device.
type PortAudioSink struct {
	DeviceName string

	stream *portaudio.Stream
	buffer []int16
}

// NewPortAudioSink initializes the audio runtime and returns an unopened
// sink. The output stream is opened by Start.
func NewPortAudioSink(deviceName string) (*PortAudioSink, error) {
	if err := initPortAudio(); err != nil {
		return nil, err
	}
	return &PortAudioSink{DeviceName: deviceName}, nil
}

// Start opens the output stream at the given sample rate.
func (s *PortAudioSink) Start(sampleRate int) error {
	if s.stream != nil {
		return nil
	}

	// Buffer sized for the writes the pipeline produces.
	s.buffer = make([]int16, sampleRate/10)

	var err error
	if s.DeviceName == "" {
		s.stream, err = portaudio.OpenDefaultStream(
			0, 1, float64(sampleRate), len(s.buffer), &s.buffer)
	} else {
		var dev *portaudio.DeviceInfo
		dev, err = findOutputDevice(s.DeviceName)
		if err == nil {
			params := portaudio.LowLatencyParameters(nil, dev)
			params.Output.Channels = 1
			params.SampleRate = float64(sampleRate)
			params.FramesPerBuffer = len(s.buffer)
			s.stream, err = portaudio.OpenStream(params, &s.buffer)
		}
	}
	if err != nil {
		return &DeviceError{Op: "open output", Err: err}
	}
	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		s.stream = nil
		return &DeviceError{Op: "start output", Err: err}
	}
	return nil
}

// Write blocks until pcm has been handed to the device.
func (s *PortAudioSink) Write(pcm []int16) error {
	if s.stream == nil {
		return &DeviceError{Op: "write output", Err: fmt.Errorf("sink not started")}
	}
	for off := 0; off < len(pcm); off += len(s.buffer) {
		end := off + len(s.buffer)
		if end > len(pcm) {
			end = len(pcm)
		}
		n := copy(s.buffer, pcm[off:end])
		for i := n; i < len(s.buffer); i++ {
			s.buffer[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			if err == portaudio.OutputUnderflowed {
				continue
			}
			return &DeviceError{Op: "write output", Err: err}
		}
	}
	return nil
}

// Stop closes the output stream. The sink may be started again afterwards.
func (s *PortAudioSink) Stop() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	if e := s.stream.Close(); e != nil && err == nil {
		err = e
	}
	s.stream = nil
	if err != nil {
		return &DeviceError{Op: "close output", Err: err}
	}
	return nil
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.MaxOutputChannels > 0 && strings.Contains(strings.ToLower(dev.Name), strings.ToLower(name)) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no output device matching %q", name)
}
