// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     stt
// Description: Whisper-compatible transcription client
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

// WhisperConfig holds settings for the transcription endpoint.
type WhisperConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultWhisperConfig returns settings for the hosted endpoint.
func DefaultWhisperConfig() WhisperConfig {
	return WhisperConfig{
		BaseURL: "https://api.openai.com",
		Model:   "whisper-1",
		Timeout: 60 * time.Second,
	}
}

// WhisperSTT transcribes audio through an OpenAI-compatible
// /v1/audio/transcriptions endpoint.
type WhisperSTT struct {
	config     WhisperConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// NewWhisperSTT creates a transcription client.
func NewWhisperSTT(cfg WhisperConfig) *WhisperSTT {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &WhisperSTT{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.New("stt.whisper"),
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the WAV file and returns the recognized text.
func (w *WhisperSTT) Transcribe(ctx context.Context, wavData []byte, languageHint string) (string, error) {
	if len(wavData) == 0 {
		return "", fmt.Errorf("stt: empty audio")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("stt: build request: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("stt: build request: %w", err)
	}
	if err := mw.WriteField("model", w.config.Model); err != nil {
		return "", fmt.Errorf("stt: build request: %w", err)
	}
	if languageHint != "" {
		if err := mw.WriteField("language", languageHint); err != nil {
			return "", fmt.Errorf("stt: build request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("stt: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.config.BaseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("stt: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.config.APIKey)
	}

	start := time.Now()
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("stt: service returned %d: %s", resp.StatusCode, msg)
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("stt: decode response: %w", err)
	}

	w.logger.Debug("utterance transcribed",
		"bytes", len(wavData),
		"chars", len(result.Text),
		"took", time.Since(start))
	return result.Text, nil
}

// Close releases resources. The HTTP client holds none.
func (w *WhisperSTT) Close() error {
	return nil
}
