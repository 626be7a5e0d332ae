package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/procstat"
	"github.com/fakeyudi/lapse/internal/recorder"
	"github.com/fakeyudi/lapse/internal/report"
	"github.com/fakeyudi/lapse/internal/session"
	"github.com/fakeyudi/lapse/internal/target"
	"github.com/fakeyudi/lapse/internal/tui"
)

// shutdownTimeout bounds the final Orchestrator.Shutdown once the session is over.
const shutdownTimeout = 10 * time.Second

var (
	recordTarget  string
	recordName    string
	recordQuality string
	recordReport  string
	recordPlain   bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a screen or window until stopped",
	Long: `Record a screen or window until stopped.

Without --target an interactive picker is shown on a terminal; otherwise the
primary screen is recorded. Stop with Ctrl+C, 's' in the live view, or
'lapse stop' from another terminal.`,
	RunE: runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	c := GetConfig()

	store, err := newSessionStore()
	if err != nil {
		return err
	}
	if err := checkNoRecording(cmd.Context(), store); err != nil {
		return err
	}

	quality := recordQuality
	if quality == "" {
		quality = c.Quality
	}
	if quality != encoder.Low.Name && quality != encoder.High.Name {
		return fmt.Errorf("unknown quality %q (want low or high)", quality)
	}

	interactive := !recordPlain && isInteractive()
	targets := newEnumerator(c, logger).List(cmd.Context())

	var t target.Target
	switch {
	case recordTarget != "":
		var ok bool
		t, ok = target.Resolve(targets, recordTarget, recordName)
		if !ok {
			return fmt.Errorf("unknown target %q (run 'lapse targets' to list them, or pass --name)", recordTarget)
		}
	case interactive:
		var ok bool
		t, quality, ok, err = tui.Pick(targets, quality)
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Cancelled.")
			return nil
		}
	default:
		t = targets[0]
	}

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	orch := newOrchestrator(ctx, c, logger)
	events, unsubscribe := orch.Subscribe()
	defer unsubscribe()

	info, err := orch.Start(t, encoder.ProfileByName(quality))
	if err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	rec := &session.Record{
		ID:          info.ID,
		RecorderPID: os.Getpid(),
		EncoderPID:  info.PID,
		TargetID:    t.ID,
		TargetName:  t.DisplayName,
		OutputPath:  info.OutputPath,
		Quality:     quality,
		StartTime:   info.StartedAt,
	}
	if err := store.Save(rec); err != nil {
		orch.Stop()
		return err
	}
	defer func() {
		if err := store.Delete(); err != nil {
			logger.Warn("could not remove the recording record", "path", store.Dir(), "error", err)
		}
	}()

	// Stop on Ctrl+C, SIGTERM or a stop request from another process.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := session.WatchStop(watchCtx, store); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("stop-request watch ended", "error", err)
		}
		orch.Stop()
	}()

	var res *recorder.StopResult
	if interactive {
		res, err = tui.Watch(info, events, orch.Stop)
	} else {
		cmd.Printf("Recording %s to %s (session %s). Press Ctrl+C to stop.\n", t.DisplayName, info.OutputPath, info.ID)
		res, err = printEvents(cmd, events, info.ID)
	}
	cancelWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := orch.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("recorder shutdown", "error", serr)
	}
	if err != nil {
		return err
	}

	capture := report.NewCapture(info, res)
	if err := render(cmd, "text", capture); err != nil {
		return err
	}
	if recordReport != "" {
		if err := writeReport(recordReport, capture); err != nil {
			return err
		}
		cmd.Printf("Report written to %s\n", recordReport)
	}

	if res.State == recorder.StateFailed {
		if res.Err != nil {
			return fmt.Errorf("recording failed: %w", res.Err)
		}
		return errors.New("recording failed")
	}
	return res.Artifact.Err()
}

// checkNoRecording fails when another live lapse process owns the record,
// and clears records left behind by processes that died.
func checkNoRecording(ctx context.Context, store session.SessionStore) error {
	existing, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return session.ClearStopRequest(store)
		}
		return err
	}
	if procstat.Alive(ctx, existing.RecorderPID) {
		return fmt.Errorf("recording already in progress (session %s, started at %s)",
			existing.ID, existing.StartTime.Format(time.RFC3339))
	}
	logger.Info("removing stale recording record", "session", existing.ID, "pid", existing.RecorderPID)
	return store.Delete()
}

// printEvents is the non-interactive observer: it prints encoder errors and
// the status line once a minute, and returns with the session's result.
func printEvents(cmd *cobra.Command, events <-chan recorder.Event, id string) (*recorder.StopResult, error) {
	for ev := range events {
		if ev.SessionID != id {
			continue
		}
		switch ev.Type {
		case recorder.EventStatus:
			if ev.Status.Error != "" {
				cmd.PrintErrf("error: %s\n", ev.Status.Error)
			} else if ev.Status.IsCapturing && ev.Status.Duration > 0 && ev.Status.Duration%60 == 0 {
				cmd.Printf("  recording… %s\n", time.Duration(ev.Status.Duration)*time.Second)
			}
		case recorder.EventError:
			cmd.PrintErrf("encoder: %v\n", ev.Err)
		case recorder.EventLog:
			logger.Trace("encoder", "line", ev.Line)
		case recorder.EventSessionStopped:
			return ev.Result, nil
		}
	}
	return nil, errors.New("event stream closed before the recording stopped")
}

// writeReport writes c to path, choosing YAML or JSON by extension.
func writeReport(path string, c *report.Capture) error {
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	r, err := report.RendererFor(format)
	if err != nil {
		return err
	}
	data, err := r.Render(c)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func init() {
	recordCmd.Flags().StringVarP(&recordTarget, "target", "t", "", "Target id from 'lapse targets' (default: picker or primary screen)")
	recordCmd.Flags().StringVar(&recordName, "name", "", "Window title to capture when the id is not listed")
	recordCmd.Flags().StringVarP(&recordQuality, "quality", "q", "", "Quality tier: low or high (overrides config)")
	recordCmd.Flags().StringVar(&recordReport, "report", "", "Write a capture report to this .json or .yaml file")
	recordCmd.Flags().BoolVar(&recordPlain, "plain", false, "Print progress lines instead of the live view")
	rootCmd.AddCommand(recordCmd)
}
