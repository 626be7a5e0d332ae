package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/report"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the screens and windows that can be recorded",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := newEnumerator(GetConfig(), logger).List(cmd.Context())
		return render(cmd, formatFlag(cmd), &report.TargetList{Targets: list})
	},
}

func init() {
	targetsCmd.Flags().String("format", "", "Output format: text, json or yaml (overrides config)")
	rootCmd.AddCommand(targetsCmd)
}
