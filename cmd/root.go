// Package cmd is the thin cobra CLI surface over spryctl's library
// packages, laid out one command per file (package cmd, package-level
// command vars, init() registering with rootCmd).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var projectHome string
var configPath string

var rootCmd = &cobra.Command{
	Use:   "spryctl",
	Short: "Build orchestrator for SQL-page web applications",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectHome, "project", ".", "project home directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to spry.hcl (default: <project>/spry.hcl)")
}

// Execute runs the root command; main() calls this and exits non-zero on
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
