// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     router
// Description: Keyword routing of transcribed text to handlers
// License:     MIT
// ============================================================================

// Package router dispatches transcribed text to registered handlers. The
// engine itself only submits text and eventually receives text back; what a
// handler does in between is its own business.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// Handler processes one request and returns the text to speak or print.
type Handler interface {
	// Name identifies the handler in the registry.
	Name() string

	// Keywords trigger this handler when one appears in the input.
	Keywords() []string

	// Handle processes the request.
	Handle(ctx context.Context, text string) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	HandlerName     string
	HandlerKeywords []string
	Fn              func(ctx context.Context, text string) (string, error)
}

func (h HandlerFunc) Name() string        { return h.HandlerName }
func (h HandlerFunc) Keywords() []string  { return h.HandlerKeywords }
func (h HandlerFunc) Handle(ctx context.Context, text string) (string, error) {
	return h.Fn(ctx, text)
}

// Registry resolves input text to a handler by keyword match. Unmatched
// input goes to the default handler.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[string]Handler
	defaultName string
	logger      *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logging.New("router"),
	}
}

// Register adds a handler. Re-registering a name replaces the previous
// handler.
func (r *Registry) Register(h Handler) error {
	if h.Name() == "" {
		return fmt.Errorf("router: handler has no name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Name()] = h
	return nil
}

// SetDefault names the handler receiving unmatched input.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; !ok {
		return fmt.Errorf("router: unknown handler %q", name)
	}
	r.defaultName = name
	return nil
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the handler for the input: the first registered handler
// (in sorted name order, for determinism) with a keyword present in the
// text, otherwise the default.
func (r *Registry) Resolve(text string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(text)
	for _, name := range r.sortedNamesLocked() {
		h := r.handlers[name]
		for _, kw := range h.Keywords() {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return h, nil
			}
		}
	}
	if r.defaultName == "" {
		return nil, fmt.Errorf("router: no handler matches and no default set")
	}
	return r.handlers[r.defaultName], nil
}

// Dispatch resolves and runs the handler for the input.
func (r *Registry) Dispatch(ctx context.Context, text string) (string, error) {
	h, err := r.Resolve(text)
	if err != nil {
		return "", err
	}
	r.logger.Debug("dispatching", "handler", h.Name())
	return h.Handle(ctx, text)
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
