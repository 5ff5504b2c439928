package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spryctl/spryctl/internal/workflow"
)

var cleanProjectID string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove auto-materialized files and invoke DESTROY_CLEAN foundries",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, registry, err := newOrchestrator()
		if err != nil {
			return err
		}
		defer func() { _ = registry.Close() }()

		if err := orch.Clean(cmd.Context(), workflow.RunOpts{ProjectID: cleanProjectID}); err != nil {
			return err
		}

		fmt.Println("cleaned")
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanProjectID, "project-id", "", "value supplied to foundries as FOUNDRY_PROJECT_ID")
	rootCmd.AddCommand(cleanCmd)
}
