// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     scheduler
// Description: Due-task polling loop
// License:     MIT
// ============================================================================

package scheduler

import (
	"context"
	"time"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// DispatchFunc submits a due task's phrase to the assistant.
type DispatchFunc func(ctx context.Context, phrase string)

// Scheduler polls the store and dispatches due tasks.
type Scheduler struct {
	store    *Store
	dispatch DispatchFunc
	interval time.Duration
	logger   *logging.Logger
}

// New creates a scheduler polling the store every pollInterval. Zero means
// one second.
func New(store *Store, dispatch DispatchFunc, pollInterval time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Scheduler{
		store:    store,
		dispatch: dispatch,
		interval: pollInterval,
		logger:   logging.New("scheduler"),
	}
}

// Run polls until ctx is cancelled. Dispatch runs on this goroutine so due
// tasks are delivered one at a time in order.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	now := time.Now()
	due, err := s.store.Due(now)
	if err != nil {
		s.logger.Error("due query failed", "error", err)
		return
	}

	for _, task := range due {
		s.logger.Info("task due", "id", task.ID, "phrase", task.Phrase)
		s.dispatch(ctx, task.Phrase)
		if err := s.store.Complete(task, now); err != nil {
			s.logger.Error("task completion failed", "id", task.ID, "error", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
