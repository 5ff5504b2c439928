package workflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spryctl/spryctl/internal/config"
	"github.com/spryctl/spryctl/internal/fsroot"
	"github.com/spryctl/spryctl/internal/lint"
)

func setupProject(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "src", "widgets"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(home, "src", "widgets", "index.sql"), []byte(
		"-- @spry.nature \"sql\"\n"+
			"-- @spry.sql_impact \"dql\"\n"+
			"-- @route.path \"/widgets\"\n"+
			"-- @route.caption \"Widgets\"\n"+
			"select 1;\n",
	), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(home, "src", "widgets", "create.sql"), []byte(
		"-- @spry.nature \"sql\"\n"+
			"-- @route.path \"/widgets/create\"\n"+
			"-- @route.caption \"Create widget\"\n"+
			"select 2;\n",
	), 0o644))

	return home
}

func TestOrchestratorRunProducesArtifactsAndReport(t *testing.T) {
	home := setupProject(t)

	cfg := config.Defaults(home)
	resolver, err := fsroot.New(cfg)
	require.NoError(t, err)

	registry, err := lint.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	orch, err := New(cfg, resolver, registry)
	require.NoError(t, err)

	report, err := orch.Run(context.Background(), RunOpts{ProjectID: "test"})
	require.NoError(t, err)
	require.NotNil(t, report.Forest)

	entryPath := filepath.Join(home, "src", "spry.d", "auto", "entry", "widgets", "index.sql.auto.json")
	routePath := filepath.Join(home, "src", "spry.d", "auto", "route", "/widgets.auto.json")
	assert.FileExists(t, entryPath)
	assert.FileExists(t, routePath)
	assert.FileExists(t, filepath.Join(home, "src", "spry.d", "auto", "route", "forest.auto.json"))
	assert.FileExists(t, filepath.Join(home, "spry.d", "orchestrated.auto.md"))

	entryJSON, err := os.ReadFile(entryPath)
	require.NoError(t, err)
	var entryView map[string]any
	require.NoError(t, json.Unmarshal(entryJSON, &entryView))
	assert.Equal(t, "sql", entryView["nature"])
	assert.NotEmpty(t, entryView["source"], "persisted entry must carry the raw annotation items as .source")

	routeJSON, err := os.ReadFile(routePath)
	require.NoError(t, err)
	var routeView map[string]any
	require.NoError(t, json.Unmarshal(routeJSON, &routeView))
	assert.Equal(t, "/widgets", routeView["path"])
	assert.NotEmpty(t, routeView["source"], "persisted route must carry the raw annotation items as .source")
}

func TestOrchestratorCleanRemovesAutoDir(t *testing.T) {
	home := setupProject(t)
	cfg := config.Defaults(home)
	resolver, err := fsroot.New(cfg)
	require.NoError(t, err)

	registry, err := lint.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	orch, err := New(cfg, resolver, registry)
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), RunOpts{ProjectID: "test"})
	require.NoError(t, err)

	stale := filepath.Join(home, "src", "spry.d", "auto", "stale.auto.json")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o644))

	_, err = orch.Run(context.Background(), RunOpts{ProjectID: "test", Clean: true})
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(home, "src", "spry.d", "auto", "route", "forest.auto.json"))
}
