// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     main
// Description: SandVoice CLI entry point
// License:     MIT
// ============================================================================

package main

import (
	"os"

	"github.com/spideyz0r/sandvoice/cmd/sandvoice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
