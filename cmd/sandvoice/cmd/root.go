// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     cmd
// Description: Root command and shared flags
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant"
	"github.com/spideyz0r/sandvoice/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sandvoice",
	Short: "SandVoice - voice-first assistant",
	Long: `SandVoice is an always-on voice assistant: it waits for a wake
phrase, records what you say, sends it off for transcription and a
response, and speaks the answer. Saying the wake phrase again at any
point interrupts the assistant and starts a new request.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.sandvoice/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configured file and applies the shared flags.
func loadConfig() (voiceassistant.Config, error) {
	path := cfgFile
	if path == "" {
		path = voiceassistant.DefaultConfigPath()
	}
	cfg, err := voiceassistant.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	logging.Configure(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
