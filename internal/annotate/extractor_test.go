package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spryctl/spryctl/api"
)

func TestExtractGoTags(t *testing.T) {
	code := []byte(`package foo

// @spry.nature "page"
// @route.path "/widgets"
// @route.caption "Widgets"
func Handler() {}
`)
	result, err := Extract(code, "go", Options{Tags: TagOptions{ValueMode: "json"}})
	require.NoError(t, err)

	byKey := map[string]any{}
	for _, it := range result.Items {
		byKey[it.Key] = it.Value
	}
	assert.Equal(t, "page", byKey["spry.nature"])
	assert.Equal(t, "/widgets", byKey["route.path"])
	assert.Equal(t, "Widgets", byKey["route.caption"])
}

func TestExtractSQLTags(t *testing.T) {
	code := []byte(`-- @spry.nature "sql"
-- @spry.sql_impact "dql"
select 1;
`)
	result, err := Extract(code, "sql", Options{Tags: TagOptions{ValueMode: "json"}})
	require.NoError(t, err)

	var kinds []api.AnnotationKind
	for _, it := range result.Items {
		kinds = append(kinds, it.Kind)
	}
	assert.Len(t, result.Items, 2)
	for _, k := range kinds {
		assert.Equal(t, api.KindTag, k)
	}
}

func TestExtractFallsBackToLineScanForUnknownLanguage(t *testing.T) {
	code := []byte("# @spry.nature \"resource\"\nsome raw content\n")
	result, err := Extract(code, "", Options{Tags: TagOptions{ValueMode: "json"}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "spry.nature", result.Items[0].Key)
	assert.Equal(t, "resource", result.Items[0].Value)
}

func TestExtractLocationTracking(t *testing.T) {
	code := []byte("package foo\n\n// header\n// @spry.nature \"api\"\nfunc F() {}\n")
	result, err := Extract(code, "go", Options{Tags: TagOptions{ValueMode: "json"}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 4, result.Items[0].Loc.Line)
}
