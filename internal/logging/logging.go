// Package logging builds the diagnostic logger shared by lapse components.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/fakeyudi/lapse/internal/config"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "LAPSE_LOG_LEVEL"

// New returns the root "lapse" logger writing to stderr.
func New(cfg config.Config) hclog.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(cfg config.Config, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "lapse",
		Level:      Level(cfg),
		Output:     w,
		JSONFormat: strings.EqualFold(cfg.LogFormat, "json"),
	})
}

// Level resolves the effective level: $LAPSE_LOG_LEVEL, then the config,
// then warn.
func Level(cfg config.Config) hclog.Level {
	for _, s := range []string{os.Getenv(EnvLevel), cfg.LogLevel} {
		if s == "" {
			continue
		}
		if lvl := hclog.LevelFromString(s); lvl != hclog.NoLevel {
			return lvl
		}
	}
	return hclog.Warn
}

// FFmpegLevel maps a logger level onto the encoder's -loglevel value so the
// encoder is only chatty when we are.
func FFmpegLevel(l hclog.Level) string {
	switch {
	case l <= hclog.Debug:
		return "verbose"
	case l == hclog.Info:
		return "info"
	default:
		// Warnings still carry the device errors the classifier looks for.
		return "warning"
	}
}
