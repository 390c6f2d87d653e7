// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     wakeword
// Description: Compiled wake phrase models
// License:     MIT
// ============================================================================

// Package wakeword detects a configured trigger phrase in a live frame
// stream using an energy-envelope model.
package wakeword

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Model is a compiled wake phrase: the expected number of energy bursts and
// the duration window the phrase should occupy. Built-in models are derived
// from the phrase text; user-supplied models are loaded from a YAML file.
type Model struct {
	Phrase      string
	Bursts      int
	MinDuration time.Duration
	MaxDuration time.Duration
}

// UnmarshalYAML decodes durations from strings like "400ms".
func (m *Model) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Phrase      string `yaml:"phrase"`
		Bursts      int    `yaml:"bursts"`
		MinDuration string `yaml:"min_duration"`
		MaxDuration string `yaml:"max_duration"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	m.Phrase = raw.Phrase
	m.Bursts = raw.Bursts
	if raw.MinDuration != "" {
		d, err := time.ParseDuration(raw.MinDuration)
		if err != nil {
			return fmt.Errorf("min_duration: %w", err)
		}
		m.MinDuration = d
	}
	if raw.MaxDuration != "" {
		d, err := time.ParseDuration(raw.MaxDuration)
		if err != nil {
			return fmt.Errorf("max_duration: %w", err)
		}
		m.MaxDuration = d
	}
	return nil
}

// CompileModel derives a model from the phrase text. The burst count is the
// estimated syllable count; the duration window assumes conversational pace.
func CompileModel(phrase string) (*Model, error) {
	phrase = strings.TrimSpace(strings.ToLower(phrase))
	if phrase == "" {
		return nil, fmt.Errorf("wakeword: empty phrase")
	}

	syllables := 0
	for _, word := range strings.Fields(phrase) {
		syllables += countSyllables(word)
	}
	if syllables == 0 {
		return nil, fmt.Errorf("wakeword: phrase %q has no voiced content", phrase)
	}

	// Roughly 150-400ms per spoken syllable.
	return &Model{
		Phrase:      phrase,
		Bursts:      syllables,
		MinDuration: time.Duration(syllables) * 120 * time.Millisecond,
		MaxDuration: time.Duration(syllables) * 450 * time.Millisecond,
	}, nil
}

// LoadModel reads a user-supplied model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wakeword: read model %s: %w", path, err)
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wakeword: parse model %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("wakeword: model %s: %w", path, err)
	}
	return &m, nil
}

func (m *Model) validate() error {
	if m.Bursts <= 0 {
		return fmt.Errorf("bursts must be positive, got %d", m.Bursts)
	}
	if m.MinDuration <= 0 || m.MaxDuration <= m.MinDuration {
		return fmt.Errorf("invalid duration window [%v, %v]", m.MinDuration, m.MaxDuration)
	}
	return nil
}

// countSyllables estimates syllables as vowel groups, with a floor of one
// per word.
func countSyllables(word string) int {
	n := 0
	prevVowel := false
	for _, r := range word {
		v := strings.ContainsRune("aeiouyäöü", r)
		if v && !prevVowel {
			n++
		}
		prevVowel = v
	}
	if n == 0 {
		n = 1
	}
	return n
}
