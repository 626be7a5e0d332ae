package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/config"
	"github.com/fakeyudi/lapse/internal/logging"
	"github.com/fakeyudi/lapse/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

// logger is the diagnostic logger built from cfg.
var logger hclog.Logger = hclog.NewNullLogger()

// logOutput receives diagnostic logs.
var logOutput io.Writer = os.Stderr

var rootCmd = &cobra.Command{
	Use:   "lapse",
	Short: "Record a screen or window to a local video file through ffmpeg",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup check for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() {
			if isInteractive() {
				fmt.Println()
				fmt.Println("  Welcome to lapse! Looks like this is your first time.")
				if err := runSetup(false); err != nil {
					return err
				}
			}
			// Non-interactive (tests, pipes): continue with defaults, no profile required.
		}

		activeProfile = nil
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Profile values fill in settings the config files left at their defaults.
		if activeProfile != nil {
			applyProfile(&cfg, activeProfile)
		}

		logger = logging.NewWithOutput(cfg, logOutput)
		return nil
	},
}

// applyProfile copies profile answers over fields still holding defaults.
func applyProfile(c *config.Config, p *profile.Profile) {
	def := config.Defaults()
	if c.OutputDir == def.OutputDir && p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
	if c.Quality == def.Quality && p.Quality != "" {
		c.Quality = p.Quality
	}
	if c.FFmpegPath == def.FFmpegPath && p.FFmpegPath != "" {
		c.FFmpegPath = p.FFmpegPath
	}
	if c.DefaultFormat == def.DefaultFormat && p.DefaultFormat != "" {
		c.DefaultFormat = p.DefaultFormat
	}
	if !c.CursorHidden() && p.HideCursor {
		hide := true
		c.HideCursor = &hide
	}
}

func isInteractive() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}
