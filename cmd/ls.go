package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spryctl/spryctl/internal/workflow"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Build and print the resolved route tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, registry, err := newOrchestrator()
		if err != nil {
			return err
		}
		defer func() { _ = registry.Close() }()

		cfg, _, err := loadProject()
		if err != nil {
			return err
		}

		report, err := orch.Run(cmd.Context(), workflow.RunOpts{
			ParallelFoundries: cfg.Workflow.ParallelFoundries,
		})
		if err != nil {
			return err
		}

		if report.Forest == nil {
			fmt.Println("(no routes)")
			return nil
		}

		fmt.Print(report.Forest.ASCII())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
