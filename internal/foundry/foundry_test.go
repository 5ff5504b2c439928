package foundry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spryctl/spryctl/api"
)

func TestParseFileNameAutoMaterialization(t *testing.T) {
	pfn := ParseFileName("/p/src", "report.sql.py")
	assert.True(t, pfn.Auto)
	assert.Equal(t, "sql", pfn.NatureSeg)
	assert.Equal(t, "py", pfn.ExtnSeg)
	assert.Equal(t, "report", pfn.Base)
	assert.Equal(t, "/p/src/report.auto.sql", pfn.Path)
}

func TestParseFileNameTooFewDotsDisablesAuto(t *testing.T) {
	pfn := ParseFileName("/p/src", "report.py")
	assert.False(t, pfn.Auto)
	assert.Equal(t, "report.py", pfn.FileName)
}

func TestEnvContractRendersFoundryVars(t *testing.T) {
	c := EnvContract{
		ProjectHome:     "/p",
		ProjectID:       "proj1",
		SourceJSON:      map[string]any{"path": "report.sql.py"},
		AutoMaterialize: true,
		MaterializePath: "/p/src/report.auto.sql",
		WorkflowStep:    StepAfterAnnCatalog,
		ContextJSON:     map[string]any{"k": "v"},
	}
	env, err := c.Environ()
	require.NoError(t, err)

	has := func(prefix string) bool {
		for _, e := range env {
			if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
				return true
			}
		}
		return false
	}
	assert.True(t, has("FOUNDRY_PROJECT_HOME=/p"))
	assert.True(t, has("FOUNDRY_AUTO_MATERIALIZE=TRUE"))
	assert.True(t, has("FOUNDRY_WORKFLOW_STEP=AFTER_ANN_CATALOG"))
}

func TestRunInvokesAndMaterializesStdout(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "report.sql.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'select 1;'\n"), 0o755))

	rec := api.FoundryRecord{
		WE:  api.WalkEncounter{Origin: api.WalkRoot{Path: dir}, Entry: api.WalkEntry{Path: "report.sql.sh", IsFile: true}},
		Ann: api.ResourceAnnotation{Nature: api.NatureFoundry, RunAfterAnnCatalog: true, IsCleanable: true},
		PFN: ParseFileName(dir, "report.sql.sh"),
	}

	results, err := Run(context.Background(), []api.FoundryRecord{rec}, StepAfterAnnCatalog, RunOpts{
		Contract: func(r api.FoundryRecord) (EnvContract, error) {
			return EnvContract{ProjectHome: dir, SourceJSON: r.WE.Entry.Path, ContextJSON: nil}, nil
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].ExitErr)
	assert.Contains(t, string(results[0].Stdout), "select 1;")

	require.NoError(t, Materialize(results[0], rec.PFN))
	materialized, err := os.ReadFile(rec.PFN.Path)
	require.NoError(t, err)
	assert.Contains(t, string(materialized), "select 1;")
}

func TestCleanRemovesAutoMaterializedFile(t *testing.T) {
	dir := t.TempDir()
	pfn := ParseFileName(dir, "report.sql.sh")
	require.NoError(t, os.WriteFile(pfn.Path, []byte("select 1;"), 0o644))

	rec := api.FoundryRecord{
		WE:  api.WalkEncounter{Origin: api.WalkRoot{Path: dir}, Entry: api.WalkEntry{Path: "report.sql.sh"}},
		Ann: api.ResourceAnnotation{IsCleanable: true},
		PFN: pfn,
	}

	results := Clean(context.Background(), []api.FoundryRecord{rec}, RunOpts{})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, pfn.Path, results[0].Removed)
	_, err := os.Stat(pfn.Path)
	assert.True(t, os.IsNotExist(err))
}
