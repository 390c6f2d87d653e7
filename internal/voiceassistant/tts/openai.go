// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     tts
// Description: OpenAI-compatible speech synthesis client
// License:     MIT
// ============================================================================

package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// OpenAIConfig holds settings for the speech endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Voice   string

	// MaxInputChars is the service's hard input ceiling. Zero means the
	// documented default of 4096.
	MaxInputChars int

	Timeout time.Duration
}

// DefaultOpenAIConfig returns settings for the hosted endpoint.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL:       "https://api.openai.com",
		Model:         "tts-1",
		Voice:         "alloy",
		MaxInputChars: 4096,
		Timeout:       60 * time.Second,
	}
}

// OpenAITTS synthesizes speech through an OpenAI-compatible
// /v1/audio/speech endpoint, requesting WAV output.
type OpenAITTS struct {
	config     OpenAIConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// NewOpenAITTS creates a synthesis client.
func NewOpenAITTS(cfg OpenAIConfig) *OpenAITTS {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAITTS{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.New("tts.openai"),
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// MaxInputChars returns the service input ceiling.
func (t *OpenAITTS) MaxInputChars() int {
	return t.config.MaxInputChars
}

// Synthesize renders one text chunk as WAV audio. Input above the ceiling
// is rejected locally so an oversized chunk never reaches the service.
func (t *OpenAITTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if n := len([]rune(text)); n > t.config.MaxInputChars {
		return nil, &SynthesisError{
			TextLen: n,
			Err:     fmt.Errorf("input exceeds %d character ceiling", t.config.MaxInputChars),
		}
	}

	body, err := json.Marshal(speechRequest{
		Model:          t.config.Model,
		Input:          text,
		Voice:          t.config.Voice,
		ResponseFormat: "wav",
	})
	if err != nil {
		return nil, &SynthesisError{TextLen: len(text), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.config.BaseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, &SynthesisError{TextLen: len(text), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if t.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.config.APIKey)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &SynthesisError{TextLen: len(text), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SynthesisError{
			TextLen: len(text),
			Err:     fmt.Errorf("service returned %d: %s", resp.StatusCode, msg),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{TextLen: len(text), Err: err}
	}

	t.logger.Debug("chunk synthesized",
		"chars", len(text),
		"bytes", len(audio),
		"took", time.Since(start))
	return audio, nil
}

// Close releases resources. The HTTP client holds none.
func (t *OpenAITTS) Close() error {
	return nil
}
