package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spryctl/spryctl/api"
	"github.com/spryctl/spryctl/internal/config"
	"github.com/spryctl/spryctl/internal/fsroot"
	"github.com/spryctl/spryctl/internal/lint"
	"github.com/spryctl/spryctl/internal/workflow"
)

// loadProject resolves the project config and path resolver for the
// current --project/--config flags.
func loadProject() (*api.ProjectConfig, *fsroot.Resolver, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(projectHome, config.DefaultFileName)
	}

	cfg, err := config.Load(path, projectHome)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	resolver, err := fsroot.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve project root: %w", err)
	}

	return cfg, resolver, nil
}

// newOrchestrator wires a workflow.Orchestrator over an ephemeral,
// in-process lint registry.
func newOrchestrator() (*workflow.Orchestrator, *lint.Registry, error) {
	cfg, resolver, err := loadProject()
	if err != nil {
		return nil, nil, err
	}

	registry, err := lint.Open("")
	if err != nil {
		return nil, nil, fmt.Errorf("open lint registry: %w", err)
	}

	orch, err := workflow.New(cfg, resolver, registry)
	if err != nil {
		_ = registry.Close()
		return nil, nil, fmt.Errorf("construct orchestrator: %w", err)
	}
	return orch, registry, nil
}
