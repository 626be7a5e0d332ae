package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/config"
	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure lapse (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before profile exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(true)
	},
}

// runSetup runs the interactive setup wizard. explicit is false when setup
// was triggered by a first run.
func runSetup(explicit bool) error {
	if !explicit {
		fmt.Println("  Let's get you set up.")
	}

	// Load existing profile as defaults if present.
	var existing *profile.Profile
	if profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	checkEncoder := func(path string) error {
		_, err := encoder.ResolveBinary(config.ExpandHome(path))
		return err
	}
	prof, err := profile.RunSetup(existing, os.Stdin, os.Stdout, checkEncoder)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Println("  ✓ Profile saved.")
	fmt.Println("  Setup complete. Run 'lapse record' to start recording.")
	fmt.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
