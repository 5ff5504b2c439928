package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// initCmd documents the project-scaffolding hook point. Scaffolding a new
// project tree is external, non-core tooling; this stub exists so the CLI
// surface matches what operators expect from the rest of the suite.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new project (not implemented by this orchestrator)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("init: project scaffolding is handled outside this orchestrator")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
