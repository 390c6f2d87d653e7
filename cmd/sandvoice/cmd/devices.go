// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     cmd
// Description: Audio device listing command
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := audio.ListInputDevices()
		if err != nil {
			printError("enumerating devices", err)
			return err
		}
		if len(names) == 0 {
			fmt.Println("no input devices found")
			return nil
		}
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
