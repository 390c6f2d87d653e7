// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     cmd
// Description: Scheduled task management commands
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/sandvoice/internal/voiceassistant/scheduler"
)

var (
	taskIn    string
	taskEvery string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage scheduled tasks",
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <phrase>",
	Short: "Schedule a phrase to be asked later",
	Long: `Schedules a phrase that the assistant will process as if you had
spoken it. Use --in for a one-shot task or --every for a recurring one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTaskStore()
		if err != nil {
			return err
		}
		defer store.Close()

		kind := scheduler.KindOnce
		var interval time.Duration
		firstRun := time.Now()

		if taskEvery != "" {
			interval, err = time.ParseDuration(taskEvery)
			if err != nil {
				printError("parsing --every", err)
				return err
			}
			kind = scheduler.KindInterval
			firstRun = firstRun.Add(interval)
		}
		if taskIn != "" {
			delay, err := time.ParseDuration(taskIn)
			if err != nil {
				printError("parsing --in", err)
				return err
			}
			firstRun = time.Now().Add(delay)
		}

		task, err := store.Add(args[0], kind, interval, firstRun)
		if err != nil {
			printError("adding task", err)
			return err
		}
		fmt.Printf("scheduled %s for %s\n", task.ID, task.NextRun.Format(time.RFC3339))
		return nil
	},
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTaskStore()
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, err := store.List()
		if err != nil {
			printError("listing tasks", err)
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("no scheduled tasks")
			return nil
		}
		for _, t := range tasks {
			when := t.NextRun.Format(time.RFC3339)
			if t.Kind == scheduler.KindInterval {
				fmt.Printf("  %s  %s  every %s  %q\n", t.ID, when, t.Interval, t.Phrase)
			} else {
				fmt.Printf("  %s  %s  once  %q\n", t.ID, when, t.Phrase)
			}
		}
		return nil
	},
}

var tasksRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a scheduled task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTaskStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Remove(args[0]); err != nil {
			printError("removing task", err)
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

func openTaskStore() (*scheduler.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading config", err)
		return nil, err
	}
	store, err := scheduler.NewStore(cfg.Scheduler.DBPath)
	if err != nil {
		printError("opening task store", err)
		return nil, err
	}
	return store, nil
}

func init() {
	tasksAddCmd.Flags().StringVar(&taskIn, "in", "", "run once after this delay (e.g. 10m)")
	tasksAddCmd.Flags().StringVar(&taskEvery, "every", "", "repeat at this interval (e.g. 1h)")
	tasksCmd.AddCommand(tasksAddCmd, tasksListCmd, tasksRemoveCmd)
	rootCmd.AddCommand(tasksCmd)
}
