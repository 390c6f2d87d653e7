// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     audio
// Description: PortAudio-backed microphone capture producing fixed frames
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// CaptureConfig selects the input device and the frame geometry delivered on
// the Frames channel.
type CaptureConfig struct {
	// DeviceName selects an input device by substring match. Empty means
	// the system default input.
	DeviceName string

	// SampleRate of the capture stream in Hz.
	SampleRate int

	// FrameDuration is the length of each delivered frame in milliseconds.
	// Must be one of ValidFrameDurations.
	FrameDuration int

	// ChannelBuffer is the number of frames buffered on the output channel
	// before old frames are dropped.
	ChannelBuffer int
}

// DefaultCaptureConfig returns capture settings suitable for speech
// processing: 16 kHz mono with 30 ms frames.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:    16000,
		FrameDuration: 30,
		ChannelBuffer: 64,
	}
}

// Capture reads 16-bit mono audio from an input device and delivers it as
// fixed-duration frames. It implements Source.
type Capture struct {
	config CaptureConfig
	logger *logging.Logger

	stream *portaudio.Stream
	buffer []int16
	frames chan Frame

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

var (
	paInitOnce sync.Once
	paInitErr  error
)

// initPortAudio initializes the PortAudio runtime once per process. PortAudio
// termination is left to process exit since streams from multiple captures
// and sinks share the runtime.
func initPortAudio() error {
	paInitOnce.Do(func() {
		paInitErr = portaudio.Initialize()
	})
	if paInitErr != nil {
		return &DeviceError{Op: "initialize", Err: paInitErr}
	}
	return nil
}

// NewCapture prepares a capture for the given configuration. The device is
// not opened until Start.
func NewCapture(config CaptureConfig) (*Capture, error) {
	if !ValidFrameDuration(config.FrameDuration) {
		return nil, fmt.Errorf("capture: invalid frame duration %dms, must be one of %v",
			config.FrameDuration, ValidFrameDurations)
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("capture: invalid sample rate %d", config.SampleRate)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 64
	}
	if err := initPortAudio(); err != nil {
		return nil, err
	}

	size := FrameSize(config.SampleRate, config.FrameDuration)
	return &Capture{
		config: config,
		logger: logging.New("audio.capture"),
		buffer: make([]int16, size),
		frames: make(chan Frame, config.ChannelBuffer),
	}, nil
}

// Frames returns the channel on which captured frames are delivered. The
// channel is closed after Stop.
func (c *Capture) Frames() <-chan Frame {
	return c.frames
}

// Start opens the input device and begins delivering frames. The capture
// stops when ctx is cancelled or Stop is called.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture: already running")
	}

	var err error
	if c.config.DeviceName == "" {
		c.stream, err = portaudio.OpenDefaultStream(
			1, 0, float64(c.config.SampleRate), len(c.buffer), c.buffer)
	} else {
		var dev *portaudio.DeviceInfo
		dev, err = findInputDevice(c.config.DeviceName)
		if err == nil {
			params := portaudio.LowLatencyParameters(dev, nil)
			params.Input.Channels = 1
			params.SampleRate = float64(c.config.SampleRate)
			params.FramesPerBuffer = len(c.buffer)
			c.stream, err = portaudio.OpenStream(params, c.buffer)
		}
	}
	if err != nil {
		return &DeviceError{Op: "open input", Err: err}
	}

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return &DeviceError{Op: "start input", Err: err}
	}

	c.running = true
	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.captureLoop(ctx)

	c.logger.Info("capture started",
		"sample_rate", c.config.SampleRate,
		"frame_ms", c.config.FrameDuration)
	return nil
}

func (c *Capture) captureLoop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.frames)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			// Overflows happen under load; keep reading.
			if err == portaudio.InputOverflowed {
				continue
			}
			c.logger.Error("stream read failed", "error", err)
			return
		}

		frame := make(Frame, len(c.buffer))
		copy(frame, c.buffer)

		select {
		case c.frames <- frame:
		default:
			// Consumer is behind. Drop the oldest frame to keep latency
			// bounded rather than stalling the device.
			select {
			case <-c.frames:
			default:
			}
			select {
			case c.frames <- frame:
			default:
			}
		}
	}
}

// Stop halts capture and closes the underlying device. The Frames channel is
// closed once the capture goroutine has exited. Stop is safe to call more
// than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()

	var err error
	if c.stream != nil {
		if e := c.stream.Stop(); e != nil {
			err = e
		}
		if e := c.stream.Close(); e != nil && err == nil {
			err = e
		}
		c.stream = nil
	}
	if err != nil {
		return &DeviceError{Op: "close input", Err: err}
	}
	c.logger.Debug("capture stopped")
	return nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && strings.Contains(strings.ToLower(dev.Name), lower) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}

// ListInputDevices returns the names of all available input devices. Used by
// the devices subcommand.
func ListInputDevices() ([]string, error) {
	if err := initPortAudio(); err != nil {
		return nil, err
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, &DeviceError{Op: "enumerate", Err: err}
	}
	var names []string
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			names = append(names, dev.Name)
		}
	}
	return names, nil
}
