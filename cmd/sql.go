package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spryctl/spryctl/api"
	"github.com/spryctl/spryctl/internal/deploy"
	"github.com/spryctl/spryctl/internal/fsroot"
	"github.com/spryctl/spryctl/internal/workflow"
)

var sqlOutPath string

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Build and emit the deploy SQL stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, registry, err := newOrchestrator()
		if err != nil {
			return err
		}
		defer func() { _ = registry.Close() }()

		cfg, resolver, err := loadProject()
		if err != nil {
			return err
		}

		report, err := orch.Run(cmd.Context(), workflow.RunOpts{
			ParallelFoundries: cfg.Workflow.ParallelFoundries,
		})
		if err != nil {
			return err
		}

		head, tail, err := loadSeedDDL(resolver.Root(fsroot.KindSharedLibrary))
		if err != nil {
			return err
		}

		var pages []deploy.PageFile
		for _, entry := range report.Catalog {
			if entry.Resource.Nature != api.NatureSQL && !strings.HasSuffix(entry.Encounter.Entry.Path, ".sql") {
				continue
			}
			pages = append(pages, deploy.PageFile{
				WebPath:  entry.Resource.WebPath,
				Contents: entry.Content,
			})
		}

		out := deploy.Emit(head, pages, tail)

		if sqlOutPath == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		return os.WriteFile(sqlOutPath, out, 0o644)
	},
}

func init() {
	sqlCmd.Flags().StringVar(&sqlOutPath, "out", "", "write the deploy SQL stream to this file instead of stdout")
	rootCmd.AddCommand(sqlCmd)
}

// loadSeedDDL concatenates, in name order, every "*.head.sql" file under
// dir into head and every "*.tail.sql" file into tail.
func loadSeedDDL(dir string) (head, tail []byte, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read shared library dir %s: %w", dir, err)
	}

	var headNames, tailNames []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".head.sql"):
			headNames = append(headNames, name)
		case strings.HasSuffix(name, ".tail.sql"):
			tailNames = append(tailNames, name)
		}
	}
	sort.Strings(headNames)
	sort.Strings(tailNames)

	for _, name := range headNames {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		head = append(head, b...)
	}
	for _, name := range tailNames {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		tail = append(tail, b...)
	}
	return head, tail, nil
}
