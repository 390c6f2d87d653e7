// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     voiceassistant
// Description: Voice interaction engine
// License:     MIT
// ============================================================================

package voiceassistant

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/stt"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/tts"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/vad"
	"github.com/spideyz0r/sandvoice/internal/voiceassistant/wakeword"
	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// Components are the device and service seams the engine drives. Production
// wiring uses PortAudio and the HTTP clients; tests substitute fakes.
type Components struct {
	// Primary is the always-on input device for wake detection and
	// utterance capture.
	Primary wakeword.Stream

	// OpenSecondary opens the independent barge-in input device. Called
	// when entering PROCESSING; the stream is released when the session
	// ends.
	OpenSecondary func() (wakeword.Stream, error)

	// PrimaryDetector and SecondaryDetector are independent wake phrase
	// detectors, one per stream.
	PrimaryDetector   wakeword.FrameDetector
	SecondaryDetector wakeword.FrameDetector

	// Classifier provides per-frame speech/silence decisions.
	Classifier vad.Classifier

	// Transcriber turns recorded utterances into text.
	Transcriber stt.Transcriber

	// Respond produces the response for transcribed text.
	Respond func(ctx context.Context, text string) (string, error)

	// Synthesizer renders response chunks as WAV audio.
	Synthesizer tts.Synthesizer

	// NewSink opens the playback device. Called per response turn and
	// for cue tones.
	NewSink func() (audio.Sink, error)

	// Output receives response text. Defaults to stdout.
	Output io.Writer

	// Input feeds the degraded text mode. Defaults to stdin.
	Input io.Reader

	// Artifacts persists transient audio files. Optional.
	Artifacts *ArtifactStore
}

// errPrimaryLost signals that the primary input stream ended mid-run. The
// engine drops to the text loop instead of spinning on a dead device.
var errPrimaryLost = errors.New("primary input stream lost")

// App runs the conversation cycle: idle wake listening, utterance capture,
// processing with barge-in, and interruptible playback.
type App struct {
	config Config
	comps  Components
	sm     *StateMachine
	logger *logging.Logger

	recorder *vad.Recorder
}

// New creates an engine from explicit components.
func New(cfg Config, comps Components) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if comps.Primary != nil && comps.Classifier == nil {
		return nil, fmt.Errorf("app: classifier is required with a primary stream")
	}
	if comps.Respond == nil {
		return nil, fmt.Errorf("app: responder is required")
	}
	if comps.Output == nil {
		comps.Output = os.Stdout
	}
	if comps.Input == nil {
		comps.Input = os.Stdin
	}
	return &App{
		config:   cfg,
		comps:    comps,
		sm:       NewStateMachine(),
		logger:   logging.New("app"),
		recorder: vad.NewRecorder(comps.Classifier),
	}, nil
}

// StateMachine exposes the session state, e.g. for status displays.
func (a *App) StateMachine() *StateMachine {
	return a.sm
}

// Run drives the cycle until ctx is cancelled. Hardware acquisition
// failure degrades to a text conversation loop instead of returning.
func (a *App) Run(ctx context.Context) error {
	if a.comps.Primary == nil {
		a.logger.Error("no input device configured, running in text mode")
		return a.runTextMode(ctx)
	}
	if err := a.comps.Primary.Start(ctx); err != nil {
		var devErr *audio.DeviceError
		if errors.As(err, &devErr) {
			a.logger.Error("input device unavailable, running in text mode", "error", err)
			return a.runTextMode(ctx)
		}
		return err
	}
	defer a.comps.Primary.Stop()

	a.logger.Info("assistant started",
		"wake_phrase", a.config.Wake.Phrase,
		"sample_rate", a.config.Recording.SampleRate)

	for ctx.Err() == nil {
		var err error
		switch a.sm.Current() {
		case StateIdle:
			err = a.runIdle(ctx)
		case StateListening:
			err = a.runListening(ctx)
		case StateProcessing, StateResponding:
			// Entered only through runListening's hand-off; reaching
			// here means a stray transition, recover to idle.
			a.sm.Reset()
		}
		if errors.Is(err, errPrimaryLost) {
			a.logger.Error("input device lost, running in text mode")
			a.comps.Primary.Stop()
			a.sm.Reset()
			return a.runTextMode(ctx)
		}
	}
	a.sm.Reset()
	return ctx.Err()
}

// runIdle feeds primary frames to the wake detector until it fires.
func (a *App) runIdle(ctx context.Context) error {
	if a.comps.PrimaryDetector == nil {
		// Wake detection unavailable; nothing to do in idle. The CLI
		// layer surfaces this once at startup.
		<-ctx.Done()
		return nil
	}
	a.comps.PrimaryDetector.Reset()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-a.comps.Primary.Frames():
			if !ok {
				a.logger.Error("primary stream ended in idle")
				return errPrimaryLost
			}
			if a.comps.PrimaryDetector.Feed(frame) {
				a.logger.Info("wake phrase detected")
				a.sm.Apply(EventWakeDetected)
				a.playTone(a.confirmTone())
				return nil
			}
		}
	}
}

// runListening records one utterance and hands it to processing.
func (a *App) runListening(ctx context.Context) error {
	rec := a.config.Recording
	opts := vad.RecordOptions{
		SilenceDuration: rec.SilenceDuration(),
		MaxDuration:     rec.MaxDuration(),
		FrameDuration:   rec.FrameDurationMs,
		SampleRate:      rec.SampleRate,
	}

	utt, err := a.recorder.Record(ctx, a.comps.Primary.Frames(), opts)
	switch {
	case err == nil:
	case errors.Is(err, vad.ErrNoSpeech):
		a.logger.Info("no speech captured")
		a.sm.Apply(EventNoSpeech)
		return nil
	case errors.Is(err, vad.ErrStreamClosed):
		a.logger.Error("primary stream ended while listening")
		return errPrimaryLost
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	default:
		a.logger.Error("utterance capture failed", "state", a.sm.Current().String(), "error", err)
		a.sm.Apply(EventCaptureError)
		return nil
	}

	if utt.Duration() >= opts.MaxDuration {
		a.sm.Apply(EventMaxDuration)
	} else {
		a.sm.Apply(EventSilenceTimeout)
	}
	a.logger.Info("utterance captured",
		"frames", utt.Len(),
		"duration", utt.Duration())
	a.playTone(a.ackTone())

	a.runTurn(ctx, utt)
	return nil
}

// processResult carries the outcome of one background processing run.
type processResult struct {
	user  string
	reply string
	err   error
}

// runTurn owns PROCESSING and RESPONDING for one utterance. A barge-in in
// either state moves straight back to LISTENING.
func (a *App) runTurn(ctx context.Context, utt *audio.Utterance) {
	barge := a.startBargeSession(ctx)
	defer a.stopBargeSession(barge)

	resultc := make(chan processResult, 1)
	go a.process(ctx, utt, resultc)

	var result processResult
	ticker := time.NewTicker(a.config.BargeIn.PollInterval())
	defer ticker.Stop()

waitWork:
	for {
		select {
		case <-ctx.Done():
			return
		case result = <-resultc:
			break waitWork
		case <-barge.events():
			a.logger.Info("barge-in during processing, result will be discarded")
			a.sm.Apply(EventBargeIn)
			return
		case <-ticker.C:
			// Bounded wait; the work itself is bounded by client
			// timeouts.
		}
	}

	if result.err != nil {
		a.logger.Error("processing failed", "state", a.sm.Current().String(), "error", result.err)
		fmt.Fprintf(a.comps.Output, "Sorry, I could not process that: %v\n", result.err)
		a.sm.Apply(EventCaptureError)
		return
	}

	a.sm.Apply(EventWorkComplete)
	a.respond(ctx, result.reply, barge)
}

// process transcribes the utterance and generates a response off the main
// loop. The result lands in a buffered channel so an abandoned turn leaks
// nothing; a late result is simply never read.
func (a *App) process(ctx context.Context, utt *audio.Utterance, resultc chan<- processResult) {
	wavData := audio.EncodeWAV(utt.PCM(), utt.SampleRate, 1)
	utt.Clear()

	var path string
	if a.comps.Artifacts != nil {
		var err error
		if path, err = a.comps.Artifacts.Save("utterance", "wav", wavData); err != nil {
			a.logger.Warn("artifact save failed", "error", err)
		}
		defer a.comps.Artifacts.Release(path)
	}

	text, err := a.transcribeWithRetry(ctx, wavData)
	if err != nil {
		resultc <- processResult{err: fmt.Errorf("transcription: %w", err)}
		return
	}
	if text == "" {
		resultc <- processResult{err: fmt.Errorf("transcription produced no text")}
		return
	}
	a.logger.Info("utterance transcribed", "text", text)

	reply, err := a.comps.Respond(ctx, text)
	if err != nil {
		resultc <- processResult{user: text, err: fmt.Errorf("response: %w", err)}
		return
	}
	resultc <- processResult{user: text, reply: reply}
}

// transcribeWithRetry retries transient transcription failures with a
// bounded backoff.
func (a *App) transcribeWithRetry(ctx context.Context, wavData []byte) (string, error) {
	backoff := 300 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		text, err := a.comps.Transcriber.Transcribe(ctx, wavData, a.config.Recording.LanguageHint)
		if err == nil {
			return text, nil
		}
		lastErr = err
		a.logger.Warn("transcription attempt failed", "attempt", attempt+1, "error", err)
	}
	return "", lastErr
}

// respond speaks the reply, watching for barge-in the whole time.
func (a *App) respond(ctx context.Context, reply string, barge *bargeSession) {
	fmt.Fprintln(a.comps.Output, reply)

	if a.comps.Synthesizer == nil || a.comps.NewSink == nil {
		a.sm.Apply(EventPlaybackComplete)
		return
	}

	sink, err := a.comps.NewSink()
	if err != nil {
		a.logger.Error("playback device unavailable, text only", "error", err)
		a.sm.Apply(EventPlaybackComplete)
		return
	}

	pipeline := audio.NewPipeline(sink, audio.PipelineConfig{
		QueueDepth:   a.config.Speech.BufferAhead,
		WriteChunk:   100 * time.Millisecond,
		SegmentPause: time.Duration(a.config.Speech.ChunkPauseMs) * time.Millisecond,
	})

	chunks := tts.SplitForSpeech(reply, tts.SplitOptions{
		MaxChars:          a.config.Speech.MaxChunkChars,
		FirstChunkSeconds: a.config.Speech.FirstChunkSeconds,
	})

	donec := make(chan audio.Result, 1)
	go func() {
		for i, chunk := range chunks {
			seg := a.synthesizeSegment(ctx, i, chunk)
			if !pipeline.Enqueue(seg) {
				break
			}
		}
		donec <- pipeline.DrainAndClose()
	}()

	for {
		select {
		case <-ctx.Done():
			pipeline.StopNow()
			<-donec
			return
		case res := <-donec:
			if res.TextOnly {
				a.logger.Warn("response finished in text-only mode",
					"played", res.Played, "chunks", len(chunks))
			}
			a.sm.Apply(EventPlaybackComplete)
			return
		case <-barge.events():
			a.logger.Info("barge-in during playback")
			pipeline.StopNow()
			select {
			case <-donec:
			case <-time.After(a.config.BargeIn.JoinTimeout()):
				a.logger.Warn("playback join timed out")
			}
			a.sm.Apply(EventBargeIn)
			return
		}
	}
}

// synthesizeSegment renders one chunk, decoding the WAV payload to PCM. A
// failure becomes an error segment so the pipeline downgrades the turn.
func (a *App) synthesizeSegment(ctx context.Context, index int, chunk string) audio.Segment {
	wavData, err := a.comps.Synthesizer.Synthesize(ctx, chunk)
	if err != nil {
		a.logger.Error("chunk synthesis failed", "chunk", index, "error", err)
		return audio.Segment{Index: index, Text: chunk, Err: err}
	}
	if a.comps.Artifacts != nil {
		if path, err := a.comps.Artifacts.Save("segment", "wav", wavData); err == nil {
			defer a.comps.Artifacts.Release(path)
		}
	}
	rate, pcm, err := audio.DecodeWAV(wavData)
	if err != nil {
		a.logger.Error("chunk decode failed", "chunk", index, "error", err)
		return audio.Segment{Index: index, Text: chunk, Err: err}
	}
	return audio.Segment{Index: index, Text: chunk, PCM: pcm, SampleRate: rate}
}

// bargeSession wraps the secondary listener's lifecycle. A disabled or
// failed session has a nil events channel, which never fires.
type bargeSession struct {
	listener *wakeword.Listener
}

func (b *bargeSession) events() <-chan struct{} {
	if b == nil || b.listener == nil {
		return nil
	}
	return b.listener.Detected()
}

// startBargeSession opens the secondary device and starts listening.
// Failure disables barge-in for this turn only.
func (a *App) startBargeSession(ctx context.Context) *bargeSession {
	if !a.config.BargeIn.Enabled || a.comps.OpenSecondary == nil || a.comps.SecondaryDetector == nil {
		return &bargeSession{}
	}

	stream, err := a.comps.OpenSecondary()
	if err != nil {
		a.logger.Warn("barge-in unavailable this turn", "error", err)
		return &bargeSession{}
	}
	listener := wakeword.NewListener(a.comps.SecondaryDetector, stream)
	if err := listener.Start(ctx); err != nil {
		a.logger.Warn("barge-in listener failed to start", "error", err)
		return &bargeSession{}
	}
	return &bargeSession{listener: listener}
}

// stopBargeSession releases the secondary device and joins the listener.
func (a *App) stopBargeSession(b *bargeSession) {
	if b != nil && b.listener != nil {
		b.listener.Stop()
	}
}

// RunText drives the engine in text-only mode: no audio devices are
// opened, requests are typed and replies printed.
func (a *App) RunText(ctx context.Context) error {
	fmt.Fprintln(a.comps.Output, "Text mode. Type your requests:")
	return a.textLoop(ctx)
}

// runTextMode is the degraded loop used when no input device can be
// acquired.
func (a *App) runTextMode(ctx context.Context) error {
	fmt.Fprintln(a.comps.Output, "Voice input unavailable. Type your requests:")
	return a.textLoop(ctx)
}

// textLoop reads a line, processes it, prints the reply. The scanner
// goroutine exits with the loop; it may stay blocked inside a pending read
// on the underlying input, but never on the hand-off.
func (a *App) textLoop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.comps.Input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			reply, err := a.comps.Respond(ctx, line)
			if err != nil {
				fmt.Fprintf(a.comps.Output, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(a.comps.Output, reply)
		}
	}
}

// playTone writes a cue tone straight to a fresh sink. Tone failures are
// logged and otherwise ignored.
func (a *App) playTone(cfg audio.ToneConfig) {
	if !a.config.Tones.Enabled || a.comps.NewSink == nil {
		return
	}
	pcm, err := audio.SineTone(cfg)
	if err != nil {
		a.logger.Warn("tone generation failed", "error", err)
		return
	}
	sink, err := a.comps.NewSink()
	if err != nil {
		a.logger.Warn("tone playback unavailable", "error", err)
		return
	}
	if err := sink.Start(cfg.SampleRate); err != nil {
		a.logger.Warn("tone playback failed", "error", err)
		return
	}
	if err := sink.Write(pcm); err != nil {
		a.logger.Warn("tone playback failed", "error", err)
	}
	sink.Stop()
}

func (a *App) confirmTone() audio.ToneConfig {
	t := a.config.Tones
	return audio.ToneConfig{
		Freq:       t.ConfirmFreq,
		Duration:   time.Duration(t.ConfirmMs) * time.Millisecond,
		SampleRate: a.config.Recording.SampleRate,
		Volume:     t.Volume,
	}
}

func (a *App) ackTone() audio.ToneConfig {
	t := a.config.Tones
	return audio.ToneConfig{
		Freq:       t.AckFreq,
		Duration:   time.Duration(t.AckMs) * time.Millisecond,
		SampleRate: a.config.Recording.SampleRate,
		Volume:     t.Volume,
	}
}
