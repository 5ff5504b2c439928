package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// devCmd documents the hot-reload dev-server hook point. Watching the
// source tree and re-running SQLPage is external, non-core tooling; this
// stub exists so the CLI surface matches what operators expect from the
// rest of the suite.
var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Watch the project and rebuild on change (not implemented by this orchestrator)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("dev: a watch-and-reload loop is handled outside this orchestrator")
	},
}

func init() {
	rootCmd.AddCommand(devCmd)
}
