package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spryctl/spryctl/internal/workflow"
)

var buildClean bool
var buildProjectID string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run one orchestration pass: foundries, annotation drop-in, deploy artifacts, report",
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

		start := time.Now()
		report, err := orch.Run(cmd.Context(), workflow.RunOpts{
			Clean:             buildClean,
			ParallelFoundries: cfg.Workflow.ParallelFoundries,
			ProjectID:         buildProjectID,
		})
		if err != nil {
			return err
		}

		fmt.Printf("built %d catalog entries in %v (%d lint findings)\n", len(report.Catalog), time.Since(start), len(report.Findings))
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "clean the auto-distribution directory before building")
	buildCmd.Flags().StringVar(&buildProjectID, "project-id", "", "value supplied to foundries as FOUNDRY_PROJECT_ID")
	rootCmd.AddCommand(buildCmd)
}
