package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s, want /v1/audio/transcriptions", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want whisper-1", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "utterance.wav" {
			t.Errorf("filename = %q, want utterance.wav", header.Filename)
		}
		w.Write([]byte(`{"text": "turn on the lights"}`))
	}))
	defer srv.Close()

	cfg := DefaultWhisperConfig()
	cfg.BaseURL = srv.URL
	client := NewWhisperSTT(cfg)

	text, err := client.Transcribe(context.Background(), []byte("RIFFfake"), "en")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "turn on the lights" {
		t.Errorf("text = %q, want %q", text, "turn on the lights")
	}
}

func TestWhisperTranscribeEmptyAudio(t *testing.T) {
	client := NewWhisperSTT(DefaultWhisperConfig())
	if _, err := client.Transcribe(context.Background(), nil, ""); err == nil {
		t.Error("Transcribe(empty) succeeded, want error")
	}
}

func TestWhisperTranscribeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := DefaultWhisperConfig()
	cfg.BaseURL = srv.URL
	client := NewWhisperSTT(cfg)

	_, err := client.Transcribe(context.Background(), []byte("RIFFfake"), "")
	if err == nil {
		t.Fatal("Transcribe() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q does not carry the status code", err)
	}
}
