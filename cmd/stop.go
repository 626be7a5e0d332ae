package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/procstat"
	"github.com/fakeyudi/lapse/internal/session"
)

var (
	stopWait    bool
	stopTimeout time.Duration
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the running recording to stop gracefully",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newSessionStore()
		if err != nil {
			return err
		}

		rec, err := store.Load()
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				return fmt.Errorf("no active recording")
			}
			return err
		}

		if !procstat.Alive(cmd.Context(), rec.RecorderPID) {
			if err := store.Delete(); err != nil {
				return err
			}
			cmd.Printf("Removed stale recording record %s (recorder pid %d is not running).\n", rec.ID, rec.RecorderPID)
			return nil
		}

		if err := store.RequestStop(); err != nil {
			return err
		}
		if !stopWait {
			cmd.Printf("Stop requested for session %s.\n", rec.ID)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), stopTimeout)
		defer cancel()
		if err := session.WaitGone(ctx, store); err != nil {
			return fmt.Errorf("waiting for session %s to stop: %w", rec.ID, err)
		}
		cmd.Printf("Recording stopped. Output: %s\n", rec.OutputPath)
		return nil
	},
}

func init() {
	stopCmd.Flags().BoolVarP(&stopWait, "wait", "w", false, "Wait until the recording has finished")
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", 30*time.Second, "How long --wait waits")
	rootCmd.AddCommand(stopCmd)
}
