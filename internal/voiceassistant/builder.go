// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     voiceassistant
// Description: Production component wiring
// License:     MIT
// ============================================================================

package voiceassistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/client"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/router"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/scheduler"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/stt"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/tts"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/vad"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/wakeword"
	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// Runtime bundles the assembled engine with its background services and a
// cleanup hook.
type Runtime struct {
	App       *App
	Scheduler *scheduler.Scheduler
	Registry  *router.Registry

	cleanups []func()
}

// Close releases everything the builder opened.
func (r *Runtime) Close() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

// Run starts the scheduler (when configured) and the engine, and blocks
// until ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	if r.Scheduler != nil {
		go r.Scheduler.Run(ctx)
	}
	return r.App.Run(ctx)
}

// RunText runs the engine in text-only mode with the scheduler still
// active.
func (r *Runtime) RunText(ctx context.Context) error {
	if r.Scheduler != nil {
		go r.Scheduler.Run(ctx)
	}
	return r.App.RunText(ctx)
}

// Build assembles the production engine from configuration: PortAudio
// devices, WebRTC VAD, wake detectors, the speech service clients, the
// handler registry, and the optional task scheduler.
func Build(cfg Config) (*Runtime, error) {
	logger := logging.New("build")
	rt := &Runtime{}

	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	// Primary capture device. A missing audio runtime is survivable, the
	// engine falls back to text mode.
	primary, err := audio.NewCapture(audio.CaptureConfig{
		DeviceName:    cfg.Recording.InputDevice,
		SampleRate:    cfg.Recording.SampleRate,
		FrameDuration: cfg.Recording.FrameDurationMs,
		ChannelBuffer: 64,
	})
	if err != nil {
		var devErr *audio.DeviceError
		if !errors.As(err, &devErr) {
			return nil, fmt.Errorf("build: primary capture: %w", err)
		}
		logger.Error("audio capture unavailable", "error", err)
		primary = nil
	}

	// Wake detectors, one per stream. Initialization failure disables
	// the affected path rather than aborting.
	detectorCfg := wakeword.Config{
		Phrase:        cfg.Wake.Phrase,
		ModelPath:     cfg.Wake.ModelPath,
		Sensitivity:   cfg.Wake.Sensitivity,
		SampleRate:    cfg.Recording.SampleRate,
		FrameDuration: cfg.Recording.FrameDurationMs,
	}
	var primaryDetector, secondaryDetector wakeword.FrameDetector
	if d, err := wakeword.NewDetector(detectorCfg); err != nil {
		logger.Error("primary wake detection disabled", "error", err)
	} else {
		primaryDetector = d
	}
	if d, err := wakeword.NewDetector(detectorCfg); err != nil {
		logger.Error("barge-in detection disabled", "error", err)
	} else {
		secondaryDetector = d
	}

	// No classifier means no utterance capture; like a dead capture
	// device, that leaves only the text loop.
	var classifier vad.Classifier
	if c, err := vad.NewWebRTCVAD(vad.Config{
		SampleRate:    cfg.Recording.SampleRate,
		Mode:          cfg.Recording.Aggressiveness,
		FrameDuration: cfg.Recording.FrameDurationMs,
	}); err != nil {
		logger.Error("speech detection unavailable", "error", err)
		primary = nil
	} else {
		classifier = c
	}

	transcriber := stt.NewWhisperSTT(stt.WhisperConfig{
		BaseURL: cfg.Speech.STTBaseURL,
		APIKey:  cfg.Speech.APIKey,
		Model:   cfg.Speech.STTModel,
	})
	rt.cleanups = append(rt.cleanups, func() { transcriber.Close() })

	synthesizer := tts.NewOpenAITTS(tts.OpenAIConfig{
		BaseURL: cfg.Speech.TTSBaseURL,
		APIKey:  cfg.Speech.APIKey,
		Model:   cfg.Speech.TTSModel,
		Voice:   cfg.Speech.TTSVoice,
	})
	rt.cleanups = append(rt.cleanups, func() { synthesizer.Close() })

	// Response generation: streaming gateway when configured, plain REST
	// otherwise, behind a keyword-routed registry.
	var responder client.Responder
	if cfg.Chat.WebSocketURL != "" {
		ws := client.NewWSClient(cfg.Chat.WebSocketURL, cfg.Chat.Model)
		rt.cleanups = append(rt.cleanups, func() { ws.Close() })
		responder = ws
	} else {
		responder = client.NewOpenAIClient(client.OpenAIConfig{
			BaseURL:        cfg.Chat.BaseURL,
			APIKey:         cfg.Chat.APIKey,
			Model:          cfg.Chat.Model,
			TimeoutSeconds: cfg.Chat.TimeoutSecs,
		})
	}

	history := client.NewHistory(cfg.Chat.EffectiveSystemPrompt(), cfg.Chat.MaxTurns)
	registry := router.NewRegistry()
	registry.Register(router.HandlerFunc{
		HandlerName: "chat",
		Fn: func(ctx context.Context, text string) (string, error) {
			history.Add("user", text)
			reply, err := responder.Respond(ctx, history.Messages())
			if err != nil {
				// Keep the conversation consistent: a question
				// without its answer is dropped.
				history.DropLast(1)
				return "", err
			}
			history.Add("assistant", reply)
			return reply, nil
		},
	})
	registry.SetDefault("chat")
	rt.Registry = registry

	artifacts, err := NewArtifactStore(cfg.Artifacts)
	if err != nil {
		logger.Warn("artifact store disabled", "error", err)
		artifacts = nil
	}

	comps := Components{
		OpenSecondary: func() (wakeword.Stream, error) {
			return audio.NewCapture(audio.CaptureConfig{
				DeviceName:    cfg.BargeIn.InputDevice,
				SampleRate:    cfg.Recording.SampleRate,
				FrameDuration: cfg.Recording.FrameDurationMs,
				ChannelBuffer: 64,
			})
		},
		PrimaryDetector:   primaryDetector,
		SecondaryDetector: secondaryDetector,
		Classifier:        classifier,
		Transcriber:       transcriber,
		Respond:           registry.Dispatch,
		Synthesizer:       synthesizer,
		NewSink: func() (audio.Sink, error) {
			return audio.NewPortAudioSink(cfg.Speech.OutputDevice)
		},
		Artifacts: artifacts,
	}
	if primary != nil {
		comps.Primary = primary
	}

	app, err := New(cfg, comps)
	if err != nil {
		return nil, err
	}
	rt.App = app

	if cfg.Scheduler.Enabled {
		store, err := scheduler.NewStore(cfg.Scheduler.DBPath)
		if err != nil {
			return nil, fmt.Errorf("build: scheduler: %w", err)
		}
		rt.cleanups = append(rt.cleanups, func() { store.Close() })
		rt.Scheduler = scheduler.New(store,
			func(ctx context.Context, phrase string) {
				// A due task waits for the assistant to go idle so
				// its reply never interleaves with a live turn.
				if !waitForIdle(ctx, app.StateMachine()) {
					return
				}
				reply, err := registry.Dispatch(ctx, phrase)
				if err != nil {
					logger.Error("scheduled task failed", "phrase", phrase, "error", err)
					return
				}
				fmt.Println(reply)
			},
			time.Duration(cfg.Scheduler.PollIntervalMs)*time.Millisecond)
	}

	ok = true
	return rt, nil
}

// waitForIdle blocks until the state machine reaches idle or ctx ends.
func waitForIdle(ctx context.Context, sm *StateMachine) bool {
	if sm.Current() == StateIdle {
		return true
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if sm.Current() == StateIdle {
				return true
			}
		}
	}
}
