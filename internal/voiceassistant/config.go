// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     voiceassistant
// Description: Assistant configuration
// License:     MIT
// ============================================================================

// Package voiceassistant orchestrates the always-on voice loop: wake phrase
// detection, utterance capture, processing hand-off, and interruptible
// speech playback with barge-in.
package voiceassistant

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full assistant configuration. Zero values are filled from
// DefaultConfig when loading.
type Config struct {
	Wake      WakeConfig      `yaml:"wake"`
	Recording RecordingConfig `yaml:"recording"`
	BargeIn   BargeInConfig   `yaml:"barge_in"`
	Tones     TonesConfig     `yaml:"tones"`
	Speech    SpeechConfig    `yaml:"speech"`
	Chat      ChatConfig      `yaml:"chat"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WakeConfig configures wake phrase detection.
type WakeConfig struct {
	Phrase      string  `yaml:"phrase"`
	ModelPath   string  `yaml:"model_path"`
	Sensitivity float64 `yaml:"sensitivity"`
}

// RecordingConfig configures capture and utterance bounds.
type RecordingConfig struct {
	InputDevice     string  `yaml:"input_device"`
	SampleRate      int     `yaml:"sample_rate"`
	FrameDurationMs int     `yaml:"frame_duration_ms"`
	Aggressiveness  int     `yaml:"aggressiveness"`
	SilenceSeconds  float64 `yaml:"silence_seconds"`
	MaxSeconds      float64 `yaml:"max_seconds"`
	LanguageHint    string  `yaml:"language_hint"`
}

// BargeInConfig configures the secondary wake listener.
type BargeInConfig struct {
	Enabled            bool    `yaml:"enabled"`
	InputDevice        string  `yaml:"input_device"`
	PollIntervalMs     int     `yaml:"poll_interval_ms"`
	JoinTimeoutSeconds float64 `yaml:"join_timeout_seconds"`
}

// TonesConfig configures audio cues.
type TonesConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ConfirmFreq  float64 `yaml:"confirm_freq"`
	ConfirmMs    int     `yaml:"confirm_ms"`
	AckFreq      float64 `yaml:"ack_freq"`
	AckMs        int     `yaml:"ack_ms"`
	Volume       float64 `yaml:"volume"`
}

// SpeechConfig configures synthesis and playback.
type SpeechConfig struct {
	OutputDevice      string  `yaml:"output_device"`
	MaxChunkChars     int     `yaml:"max_chunk_chars"`
	FirstChunkSeconds float64 `yaml:"first_chunk_seconds"`
	ChunkPauseMs      int     `yaml:"chunk_pause_ms"`
	BufferAhead       int     `yaml:"buffer_ahead"`
	TTSBaseURL        string  `yaml:"tts_base_url"`
	TTSModel          string  `yaml:"tts_model"`
	TTSVoice          string  `yaml:"tts_voice"`
	STTBaseURL        string  `yaml:"stt_base_url"`
	STTModel          string  `yaml:"stt_model"`
	APIKey            string  `yaml:"api_key"`
}

// ChatConfig configures response generation.
type ChatConfig struct {
	BaseURL      string `yaml:"base_url"`
	WebSocketURL string `yaml:"websocket_url"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	SystemPrompt string `yaml:"system_prompt"`
	BotName      string `yaml:"bot_name"`
	Location     string `yaml:"location"`
	Timezone     string `yaml:"timezone"`
	MaxTurns     int    `yaml:"max_turns"`
	TimeoutSecs  int    `yaml:"timeout_seconds"`
}

// EffectiveSystemPrompt is the system prompt with the persona details
// appended when they are set.
func (c ChatConfig) EffectiveSystemPrompt() string {
	prompt := c.SystemPrompt
	if c.BotName != "" {
		prompt += fmt.Sprintf(" Your name is %s.", c.BotName)
	}
	if c.Location != "" {
		prompt += fmt.Sprintf(" The user is located in %s.", c.Location)
	}
	if c.Timezone != "" {
		prompt += fmt.Sprintf(" The user's timezone is %s.", c.Timezone)
	}
	return prompt
}

// SchedulerConfig configures the task scheduler.
type SchedulerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	DBPath         string `yaml:"db_path"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

// ArtifactsConfig configures transient audio files.
type ArtifactsConfig struct {
	Dir    string `yaml:"dir"`
	Retain bool   `yaml:"retain"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Wake: WakeConfig{
			Phrase:      "hey sandvoice",
			Sensitivity: 0.5,
		},
		Recording: RecordingConfig{
			SampleRate:      16000,
			FrameDurationMs: 30,
			Aggressiveness:  2,
			SilenceSeconds:  1.5,
			MaxSeconds:      30,
		},
		BargeIn: BargeInConfig{
			Enabled:            true,
			PollIntervalMs:     50,
			JoinTimeoutSeconds: 2,
		},
		Tones: TonesConfig{
			Enabled:     true,
			ConfirmFreq: 800,
			ConfirmMs:   100,
			AckFreq:     600,
			AckMs:       60,
			Volume:      0.3,
		},
		Speech: SpeechConfig{
			MaxChunkChars:     3800,
			FirstChunkSeconds: 6,
			ChunkPauseMs:      120,
			BufferAhead:       2,
			TTSBaseURL:        "https://api.openai.com",
			TTSModel:          "tts-1",
			TTSVoice:          "alloy",
			STTBaseURL:        "https://api.openai.com",
			STTModel:          "whisper-1",
		},
		Chat: ChatConfig{
			BaseURL:      "https://api.openai.com",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are a helpful voice assistant. Keep answers brief and speakable.",
			BotName:      "SandVoice",
			MaxTurns:     20,
			TimeoutSecs:  120,
		},
		Scheduler: SchedulerConfig{
			Enabled:        false,
			DBPath:         filepath.Join(home, ".sandvoice", "tasks.db"),
			PollIntervalMs: 1000,
		},
		Artifacts: ArtifactsConfig{
			Dir:    filepath.Join(os.TempDir(), "sandvoice"),
			Retain: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultConfigPath returns the user config location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".sandvoice", "config.yaml")
}

// LoadConfig reads path and merges it over the defaults. A missing file
// yields the plain defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Recording.FrameDurationMs {
	case 10, 20, 30:
	default:
		return fmt.Errorf("config: frame_duration_ms must be 10, 20 or 30, got %d", c.Recording.FrameDurationMs)
	}
	if c.Wake.Sensitivity < 0 || c.Wake.Sensitivity > 1 {
		return fmt.Errorf("config: wake sensitivity must be in [0,1], got %v", c.Wake.Sensitivity)
	}
	if c.Recording.Aggressiveness < 0 || c.Recording.Aggressiveness > 3 {
		return fmt.Errorf("config: aggressiveness must be 0-3, got %d", c.Recording.Aggressiveness)
	}
	if c.Recording.SilenceSeconds <= 0 || c.Recording.MaxSeconds <= 0 {
		return fmt.Errorf("config: silence_seconds and max_seconds must be positive")
	}
	if c.Speech.MaxChunkChars <= 0 {
		return fmt.Errorf("config: max_chunk_chars must be positive, got %d", c.Speech.MaxChunkChars)
	}
	return nil
}

// SilenceDuration returns the silence bound as a duration.
func (c RecordingConfig) SilenceDuration() time.Duration {
	return time.Duration(c.SilenceSeconds * float64(time.Second))
}

// MaxDuration returns the utterance cap as a duration.
func (c RecordingConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxSeconds * float64(time.Second))
}

// PollInterval returns the barge-in poll interval as a duration.
func (c BargeInConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// JoinTimeout returns the shutdown join bound as a duration.
func (c BargeInConfig) JoinTimeout() time.Duration {
	if c.JoinTimeoutSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.JoinTimeoutSeconds * float64(time.Second))
}
