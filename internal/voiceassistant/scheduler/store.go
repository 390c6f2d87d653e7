// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     scheduler
// Description: SQLite-backed scheduled task store
// License:     MIT
// ============================================================================

// Package scheduler runs user-defined tasks at their scheduled time by
// submitting their phrase to the assistant as if the user had spoken it.
package scheduler

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Task kinds.
const (
	KindOnce     = "once"
	KindInterval = "interval"
)

// Task is one scheduled request.
type Task struct {
	ID        string
	Phrase    string
	Kind      string
	Interval  time.Duration
	NextRun   time.Time
	CreatedAt time.Time
}

// Store persists tasks in a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the task database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("scheduler: open db %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scheduled_tasks (
		id          TEXT PRIMARY KEY,
		phrase      TEXT NOT NULL,
		kind        TEXT NOT NULL,
		interval_ns INTEGER NOT NULL DEFAULT 0,
		next_run    INTEGER NOT NULL,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_next_run ON scheduled_tasks(next_run);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("scheduler: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Add persists a new task and returns it with its generated id.
func (s *Store) Add(phrase, kind string, interval time.Duration, firstRun time.Time) (*Task, error) {
	if phrase == "" {
		return nil, fmt.Errorf("scheduler: empty phrase")
	}
	switch kind {
	case KindOnce:
	case KindInterval:
		if interval <= 0 {
			return nil, fmt.Errorf("scheduler: interval task needs a positive interval")
		}
	default:
		return nil, fmt.Errorf("scheduler: unknown kind %q", kind)
	}

	task := &Task{
		ID:        uuid.NewString(),
		Phrase:    phrase,
		Kind:      kind,
		Interval:  interval,
		NextRun:   firstRun,
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO scheduled_tasks (id, phrase, kind, interval_ns, next_run, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID, task.Phrase, task.Kind, int64(task.Interval),
		task.NextRun.UnixNano(), task.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("scheduler: insert task: %w", err)
	}
	return task, nil
}

// Due returns tasks whose next run is at or before now, oldest first.
func (s *Store) Due(now time.Time) ([]*Task, error) {
	rows, err := s.db.Query(
		`SELECT id, phrase, kind, interval_ns, next_run, created_at
		 FROM scheduled_tasks WHERE next_run <= ? ORDER BY next_run`,
		now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("scheduler: query due: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// List returns all tasks ordered by next run.
func (s *Store) List() ([]*Task, error) {
	rows, err := s.db.Query(
		`SELECT id, phrase, kind, interval_ns, next_run, created_at
		 FROM scheduled_tasks ORDER BY next_run`)
	if err != nil {
		return nil, fmt.Errorf("scheduler: query all: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Complete marks one firing done: one-shot tasks are removed, interval
// tasks advance past now.
func (s *Store) Complete(task *Task, now time.Time) error {
	if task.Kind == KindOnce {
		return s.Remove(task.ID)
	}
	if task.Interval <= 0 {
		// A hand-edited row; advancing it would never terminate.
		if err := s.Remove(task.ID); err != nil {
			return err
		}
		return fmt.Errorf("scheduler: task %s has non-positive interval, removed", task.ID)
	}

	next := task.NextRun
	for !next.After(now) {
		next = next.Add(task.Interval)
	}
	_, err := s.db.Exec(
		`UPDATE scheduled_tasks SET next_run = ? WHERE id = ?`,
		next.UnixNano(), task.ID)
	if err != nil {
		return fmt.Errorf("scheduler: advance task %s: %w", task.ID, err)
	}
	task.NextRun = next
	return nil
}

// Remove deletes a task.
func (s *Store) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM scheduled_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("scheduler: delete task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scheduler: no task %s", id)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		var t Task
		var intervalNs, nextRun, createdAt int64
		if err := rows.Scan(&t.ID, &t.Phrase, &t.Kind, &intervalNs, &nextRun, &createdAt); err != nil {
			return nil, fmt.Errorf("scheduler: scan task: %w", err)
		}
		t.Interval = time.Duration(intervalNs)
		t.NextRun = time.Unix(0, nextRun)
		t.CreatedAt = time.Unix(0, createdAt)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}
