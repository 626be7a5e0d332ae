package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/procstat"
	"github.com/fakeyudi/lapse/internal/report"
	"github.com/fakeyudi/lapse/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current recording, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newSessionStore()
		if err != nil {
			return err
		}

		st := &report.Status{}
		rec, err := store.Load()
		switch {
		case errors.Is(err, session.ErrNoSession):
			return render(cmd, formatFlag(cmd), st)
		case err != nil:
			return err
		}

		ctx := cmd.Context()
		st.Session = rec
		st.Recording = procstat.Alive(ctx, rec.RecorderPID)
		st.Stale = !st.Recording
		if st.Recording {
			st.Elapsed = rec.Elapsed(time.Now()).Round(time.Second).String()
			if info, err := os.Stat(rec.OutputPath); err == nil {
				st.OutputBytes = info.Size()
			}
			if stats, err := procstat.Sample(ctx, rec.EncoderPID); err == nil {
				st.Encoder = &stats
			} else {
				logger.Debug("encoder stats unavailable", "pid", rec.EncoderPID, "error", err)
			}
		}
		return render(cmd, formatFlag(cmd), st)
	},
}

func init() {
	statusCmd.Flags().String("format", "", "Output format: text, json or yaml (overrides config)")
	rootCmd.AddCommand(statusCmd)
}
