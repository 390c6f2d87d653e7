// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     wakeword
// Description: Energy-envelope wake phrase detector
// License:     MIT
// ============================================================================

package wakeword

import (
	"fmt"
	"math"
	"time"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

// InitError reports that a detector could not be constructed. The owner
// disables the affected listening path instead of aborting.
type InitError struct {
	Reason string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("wakeword init: %s: %v", e.Reason, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Config for one detector instance.
type Config struct {
	// Phrase is the wake phrase compiled into a built-in model. Ignored
	// when ModelPath is set.
	Phrase string

	// ModelPath loads a user-supplied model file instead of compiling
	// from the phrase text.
	ModelPath string

	// Sensitivity in [0,1]. Higher accepts more readily at the cost of
	// false triggers.
	Sensitivity float64

	// SampleRate of the fed frames.
	SampleRate int

	// FrameDuration of the fed frames in milliseconds.
	FrameDuration int
}

// Detector matches the energy envelope of incoming frames against a
// compiled phrase model. Each instance is fed from exactly one stream and
// holds no shared state, so two detectors can run concurrently against
// independent devices.
type Detector struct {
	model     *Model
	frameDur  time.Duration
	window    *audio.RingBuffer
	threshold float64

	// noiseFloor adapts to ambient level so the burst threshold tracks
	// the environment.
	noiseFloor float64
}

// NewDetector compiles or loads the phrase model and prepares a detector.
// Failures are returned as *InitError.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.Sensitivity < 0 || cfg.Sensitivity > 1 {
		return nil, &InitError{
			Reason: "sensitivity",
			Err:    fmt.Errorf("must be in [0,1], got %v", cfg.Sensitivity),
		}
	}
	if !audio.ValidFrameDuration(cfg.FrameDuration) {
		return nil, &InitError{
			Reason: "frame duration",
			Err:    fmt.Errorf("%dms not in %v", cfg.FrameDuration, audio.ValidFrameDurations),
		}
	}

	var model *Model
	var err error
	if cfg.ModelPath != "" {
		model, err = LoadModel(cfg.ModelPath)
	} else {
		model, err = CompileModel(cfg.Phrase)
	}
	if err != nil {
		return nil, &InitError{Reason: "model", Err: err}
	}

	frameDur := time.Duration(cfg.FrameDuration) * time.Millisecond
	windowFrames := int(model.MaxDuration/frameDur) + 1

	// Sensitivity 0 demands bursts 6x above the noise floor, 1 only 2x.
	threshold := 6.0 - 4.0*cfg.Sensitivity

	return &Detector{
		model:      model,
		frameDur:   frameDur,
		window:     audio.NewRingBuffer(windowFrames),
		threshold:  threshold,
		noiseFloor: 100,
	}, nil
}

// Model returns the compiled model the detector matches against.
func (d *Detector) Model() *Model {
	return d.model
}

// Feed consumes one frame and reports whether the wake phrase just
// completed. After a detection the rolling window is cleared so the same
// audio cannot trigger twice.
func (d *Detector) Feed(frame audio.Frame) bool {
	energy := rms(frame)

	// Track ambient level with a slow exponential average, updated only
	// from frames that are not part of a burst.
	if energy < d.noiseFloor*d.threshold {
		d.noiseFloor = 0.95*d.noiseFloor + 0.05*energy
		if d.noiseFloor < 1 {
			d.noiseFloor = 1
		}
	}

	d.window.Push(energy)
	if d.matches() {
		d.window.Clear()
		return true
	}
	return false
}

// Reset clears the rolling window, e.g. after the stream was interrupted.
func (d *Detector) Reset() {
	d.window.Clear()
}

// matches scans the window for the model's burst pattern: the right number
// of energy bursts, spanning a duration inside the model's window, with the
// last burst just ended.
func (d *Detector) matches() bool {
	energies := d.window.Snapshot()
	if len(energies) < 3 {
		return false
	}

	hot := d.noiseFloor * d.threshold
	type burst struct{ start, end int }
	var bursts []burst
	inBurst := false
	for i, e := range energies {
		if e >= hot {
			if !inBurst {
				bursts = append(bursts, burst{start: i, end: i})
				inBurst = true
			} else {
				bursts[len(bursts)-1].end = i
			}
		} else {
			inBurst = false
		}
	}

	if len(bursts) != d.model.Bursts {
		return false
	}
	// The phrase must have just finished: at least one trailing quiet
	// frame, and not more than a short gap.
	last := bursts[len(bursts)-1]
	trailing := len(energies) - 1 - last.end
	if trailing < 1 || trailing > 8 {
		return false
	}

	span := time.Duration(last.end-bursts[0].start+1) * d.frameDur
	return span >= d.model.MinDuration && span <= d.model.MaxDuration
}

func rms(frame audio.Frame) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
