// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     client
// Description: Response generation contracts and conversation history
// License:     MIT
// ============================================================================

// Package client talks to response-generation backends. The engine hands
// them transcribed text and eventually receives text to speak.
package client

import (
	"context"
	"sync"
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Responder produces a response for the user's transcribed text, given the
// conversation so far.
type Responder interface {
	Respond(ctx context.Context, messages []Message) (string, error)
	Close() error
}

// StreamingResponder additionally delivers the response incrementally.
// onChunk receives each text fragment; done is true on the final call.
type StreamingResponder interface {
	Responder
	RespondStream(ctx context.Context, messages []Message, onChunk func(chunk string, done bool)) error
}

// History is the bounded conversation memory. It keeps at most maxTurns
// user/assistant exchanges plus the system prompt.
type History struct {
	mu       sync.Mutex
	system   string
	messages []Message
	maxTurns int
}

// NewHistory creates a history with the given system prompt. maxTurns <= 0
// means unbounded.
func NewHistory(systemPrompt string, maxTurns int) *History {
	return &History{system: systemPrompt, maxTurns: maxTurns}
}

// Add appends one message and trims old exchanges beyond the bound.
func (h *History) Add(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, Message{Role: role, Content: content})
	if h.maxTurns > 0 && len(h.messages) > h.maxTurns*2 {
		h.messages = h.messages[len(h.messages)-h.maxTurns*2:]
	}
}

// DropLast removes the n most recent messages. Used when a turn is
// abandoned so a question without its answer does not linger.
func (h *History) DropLast(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.messages) {
		n = len(h.messages)
	}
	h.messages = h.messages[:len(h.messages)-n]
}

// Messages returns the system prompt plus the retained exchanges.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, 0, len(h.messages)+1)
	if h.system != "" {
		out = append(out, Message{Role: "system", Content: h.system})
	}
	return append(out, h.messages...)
}

// Len returns the number of retained messages, excluding the system prompt.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear drops all exchanges but keeps the system prompt.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
