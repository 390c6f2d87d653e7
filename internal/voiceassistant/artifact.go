// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     voiceassistant
// Description: Transient audio artifact lifecycle
// License:     MIT
// ============================================================================

package voiceassistant

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// ArtifactStore writes transient audio files (recorded utterances,
// synthesized segments) and deletes them after use unless retention is
// configured for debugging.
type ArtifactStore struct {
	dir    string
	retain bool
	logger *logging.Logger
}

// NewArtifactStore creates the artifact directory if needed.
func NewArtifactStore(cfg ArtifactsConfig) (*ArtifactStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create dir %s: %w", cfg.Dir, err)
	}
	return &ArtifactStore{
		dir:    cfg.Dir,
		retain: cfg.Retain,
		logger: logging.New("artifacts"),
	}, nil
}

// Save writes data under a unique name and returns its path.
func (a *ArtifactStore) Save(prefix, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%s.%s", prefix, uuid.NewString(), ext)
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write %s: %w", path, err)
	}
	return path, nil
}

// Release removes an artifact unless retention is on.
func (a *ArtifactStore) Release(path string) {
	if path == "" {
		return
	}
	if a.retain {
		a.logger.Debug("artifact retained", "path", path)
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("artifact removal failed", "path", path, "error", err)
	}
}
