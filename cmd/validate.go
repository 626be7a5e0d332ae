package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/artifact"
	"github.com/fakeyudi/lapse/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a recording (or the one a capture report names) is usable",
	Args:  cobra.ExactArgs(1),
	// An invalid artifact is an answer, not a usage mistake.
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			c, err := report.ParseCapture(data)
			if err != nil {
				return err
			}
			path = c.Artifact.Path
		}

		a := artifact.Validate(path)
		if err := render(cmd, formatFlag(cmd), &report.Artifact{VideoArtifact: a}); err != nil {
			return err
		}
		return a.Err()
	},
}

func init() {
	validateCmd.Flags().String("format", "", "Output format: text, json or yaml (overrides config)")
	rootCmd.AddCommand(validateCmd)
}
