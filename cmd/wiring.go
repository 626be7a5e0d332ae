package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/config"
	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/logging"
	"github.com/fakeyudi/lapse/internal/recorder"
	"github.com/fakeyudi/lapse/internal/report"
	"github.com/fakeyudi/lapse/internal/session"
	"github.com/fakeyudi/lapse/internal/target"
)

// newProvider is replaced in tests to avoid querying the desktop.
var newProvider = target.NewHostProvider

var newSessionStore = session.NewSessionStore

// probeTimeout bounds the avfoundation device probe on macOS.
const probeTimeout = 5 * time.Second

func targetRules(c config.Config) target.Rules {
	rules := target.DefaultRules()
	rules.DenyTitles = append(rules.DenyTitles, c.DenyTitles...)
	if len(c.AmbiguousApps) > 0 {
		rules.AmbiguousApps = c.AmbiguousApps
	}
	return rules
}

func newEnumerator(c config.Config, l hclog.Logger) *target.Enumerator {
	return target.NewEnumerator(newProvider(c.ResolvedFFmpegPath(), l), targetRules(c), l)
}

// newBuilder returns the command builder for the host. On macOS the screen
// device index is probed once; failures fall back to the usual layout.
func newBuilder(ctx context.Context, c config.Config, l hclog.Logger) encoder.Builder {
	opts := encoder.Options{
		Display:          os.Getenv("DISPLAY"),
		ScreenDeviceBase: encoder.DefaultScreenDeviceBase,
		HideCursor:       c.CursorHidden(),
		LogLevel:         logging.FFmpegLevel(logging.Level(c)),
	}
	b := encoder.NewBuilder(c.ResolvedFFmpegPath(), opts)
	if b.Platform == encoder.NativeWindowing {
		if bin, err := encoder.ResolveBinary(c.ResolvedFFmpegPath()); err == nil {
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			base, err := encoder.ProbeScreenDevices(probeCtx, bin)
			cancel()
			if err != nil {
				l.Debug("screen device probe failed", "error", err, "base", base)
			}
			b.Options.ScreenDeviceBase = base
		}
	}
	return b
}

func newOrchestrator(ctx context.Context, c config.Config, l hclog.Logger) *recorder.Orchestrator {
	return recorder.New(recorder.Options{
		Builder:   newBuilder(ctx, c, l),
		Binary:    c.ResolvedFFmpegPath(),
		OutputDir: c.ResolvedOutputDir(),
		Logger:    l,
	})
}

// formatFlag returns --format, or the configured default when unset.
func formatFlag(cmd *cobra.Command) string {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return f
	}
	return cfg.DefaultFormat
}

// render writes doc to the command's output in the requested format.
func render(cmd *cobra.Command, format string, doc report.Document) error {
	r, err := report.RendererFor(format)
	if err != nil {
		return err
	}
	data, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
