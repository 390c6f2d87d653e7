// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     voiceassistant
// Description: Conversation state machine
// License:     MIT
// ============================================================================

package voiceassistant

import (
	"sync"
	"time"
)

// State is the single authoritative mode of the assistant.
type State int

const (
	// StateIdle - passively listening for the wake phrase
	StateIdle State = iota

	// StateListening - recording the user's utterance
	StateListening

	// StateProcessing - transcription and response generation in flight
	StateProcessing

	// StateResponding - speaking the response
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// Event drives state transitions.
type Event int

const (
	// EventWakeDetected - primary listener heard the wake phrase
	EventWakeDetected Event = iota

	// EventSilenceTimeout - utterance ended on trailing silence
	EventSilenceTimeout

	// EventMaxDuration - utterance hit the duration cap
	EventMaxDuration

	// EventCaptureError - recording failed, non-fatal
	EventCaptureError

	// EventNoSpeech - recording ended without any speech
	EventNoSpeech

	// EventWorkComplete - processing produced a response
	EventWorkComplete

	// EventBargeIn - secondary listener heard the wake phrase
	EventBargeIn

	// EventPlaybackComplete - all segments played or playback gave up
	EventPlaybackComplete
)

func (e Event) String() string {
	switch e {
	case EventWakeDetected:
		return "wake_detected"
	case EventSilenceTimeout:
		return "silence_timeout"
	case EventMaxDuration:
		return "max_duration"
	case EventCaptureError:
		return "capture_error"
	case EventNoSpeech:
		return "no_speech"
	case EventWorkComplete:
		return "work_complete"
	case EventBargeIn:
		return "barge_in"
	case EventPlaybackComplete:
		return "playback_complete"
	default:
		return "unknown"
	}
}

// StateChangeListener is called after each applied transition.
type StateChangeListener func(oldState, newState State, event Event)

// StateMachine owns the session state. Transitions are total: every
// (state, event) pair either moves to a defined next state or is ignored,
// so a stray event can never corrupt the session.
type StateMachine struct {
	mu        sync.RWMutex
	current   State
	previous  State
	stateTime time.Time
	listeners []StateChangeListener
}

// NewStateMachine starts in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current:   StateIdle,
		stateTime: time.Now(),
	}
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Previous returns the state before the last transition.
func (sm *StateMachine) Previous() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.previous
}

// StateDuration returns how long the current state has been held.
func (sm *StateMachine) StateDuration() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.stateTime)
}

// AddListener registers a transition listener.
func (sm *StateMachine) AddListener(l StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, l)
}

// Apply feeds one event through the transition function. It returns the
// state afterwards and whether the event caused a change. Ignored events
// leave the state untouched.
func (sm *StateMachine) Apply(event Event) (State, bool) {
	sm.mu.Lock()
	old := sm.current
	next, ok := transition(old, event)
	if !ok {
		sm.mu.Unlock()
		return old, false
	}
	sm.previous = old
	sm.current = next
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, l := range listeners {
		l(old, next, event)
	}
	return next, true
}

// Reset forces the machine back to idle, bypassing the transition table.
// Used on shutdown and after degraded-mode recovery.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	sm.previous = sm.current
	sm.current = StateIdle
	sm.stateTime = time.Now()
	sm.mu.Unlock()
}

// transition is the total transition function. Pairs not listed are
// ignored; notably barge-in has no effect in idle or listening.
func transition(from State, event Event) (State, bool) {
	switch from {
	case StateIdle:
		if event == EventWakeDetected {
			return StateListening, true
		}
	case StateListening:
		switch event {
		case EventSilenceTimeout, EventMaxDuration:
			return StateProcessing, true
		case EventCaptureError, EventNoSpeech:
			return StateIdle, true
		}
	case StateProcessing:
		switch event {
		case EventWorkComplete:
			return StateResponding, true
		case EventBargeIn:
			return StateListening, true
		case EventCaptureError:
			return StateIdle, true
		}
	case StateResponding:
		switch event {
		case EventPlaybackComplete:
			return StateIdle, true
		case EventBargeIn:
			return StateListening, true
		}
	}
	return from, false
}
