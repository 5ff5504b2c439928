// Package config loads the project-root HCL configuration file that
// carries the ambient settings the distilled spec leaves implicit: the
// shared-library symlink name, the auto-distribution directory, the
// annotation tag prefixes, and workflow toggles.
package config

import (
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/spryctl/spryctl/api"
)

// DefaultFileName is the conventional config filename at a project's root.
const DefaultFileName = "spry.hcl"

// Defaults returns a ProjectConfig with every optional field set to its
// documented default, rooted at projectHome.
func Defaults(projectHome string) *api.ProjectConfig {
	return &api.ProjectConfig{
		ProjectHome:       projectHome,
		SharedLibraryRel:  "lib.d",
		SharedLibraryName: "lib",
		AutoDistDir:       "spry.d/auto",
		PolicyDistDir:     "spry.d",
		IndexBasenames:    []string{"index", "index.sql", "index.md", "index.html"},
		TagPrefixes: map[string]string{
			"resource": "spry.",
			"route":    "route.",
		},
		Workflow: &api.WorkflowConfig{
			BeforeClean:       true,
			ParallelFoundries: false,
		},
	}
}

// Load reads and decodes path into a ProjectConfig, applying Defaults(projectHome)
// for every field the file omits. A missing file is not an error: Load
// returns the all-defaults configuration, so a project always has a
// working config even before it writes one.
func Load(path, projectHome string) (*api.ProjectConfig, error) {
	cfg := Defaults(projectHome)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, diags
	}

	var decoded api.ProjectConfig
	if diags := gohcl.DecodeBody(f.Body, nil, &decoded); diags.HasErrors() {
		return nil, diags
	}

	if decoded.ProjectHome != "" {
		cfg.ProjectHome = decoded.ProjectHome
	}
	if decoded.SharedLibraryRel != "" {
		cfg.SharedLibraryRel = decoded.SharedLibraryRel
	}
	if decoded.SharedLibraryName != "" {
		cfg.SharedLibraryName = decoded.SharedLibraryName
	}
	if decoded.AutoDistDir != "" {
		cfg.AutoDistDir = decoded.AutoDistDir
	}
	if decoded.PolicyDistDir != "" {
		cfg.PolicyDistDir = decoded.PolicyDistDir
	}
	if len(decoded.IndexBasenames) > 0 {
		cfg.IndexBasenames = decoded.IndexBasenames
	}
	if len(decoded.TagPrefixes) > 0 {
		cfg.TagPrefixes = decoded.TagPrefixes
	}
	if decoded.Workflow != nil {
		cfg.Workflow = decoded.Workflow
	}

	return cfg, nil
}
