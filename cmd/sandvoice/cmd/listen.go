// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     cmd
// Description: Main listening loop command
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant"
)

var cliMode bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Start the assistant and listen for the wake phrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printError("loading config", err)
			return err
		}

		rt, err := voiceassistant.Build(cfg)
		if err != nil {
			printError("starting assistant", err)
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		run := rt.Run
		if cliMode {
			run = rt.RunText
		}
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			printError("assistant stopped", err)
			return err
		}
		return nil
	},
}

func init() {
	listenCmd.Flags().BoolVar(&cliMode, "cli", false, "text-only mode, no audio devices")
	rootCmd.AddCommand(listenCmd)
}
