package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spryctl/spryctl/api"
)

func testConfig() *api.ProjectConfig {
	return &api.ProjectConfig{
		TagPrefixes: map[string]string{"resource": "spry.", "route": "route."},
	}
}

func TestBuildCatalogExplicitResource(t *testing.T) {
	we := api.WalkEncounter{
		Origin: api.WalkRoot{Path: "/proj/src"},
		Entry:  api.WalkEntry{Path: "widgets/index.sql", IsFile: true},
	}
	content := []byte(`-- @spry.nature "sql"
-- @spry.sql_impact "dql"
-- @route.path "/widgets"
-- @route.caption "Widgets"
select 1;
`)
	cat, err := BuildCatalog(we, content, testConfig(), "/widgets")
	require.NoError(t, err)
	require.Empty(t, cat.Errors)

	assert.Equal(t, api.NatureSQL, cat.Resource.Nature)
	assert.Equal(t, api.ImpactDQL, cat.Resource.SQLImpact)
	assert.False(t, cat.Resource.IsSystemGenerated)

	require.NotNil(t, cat.Route)
	assert.Equal(t, "/widgets", cat.Route.Path)
	assert.Equal(t, "Widgets", cat.Route.Caption)

	assert.NotEmpty(t, cat.Items, "raw annotation items must be retained for the persisted .source field")
}

func TestBuildCatalogSynthesizesPageWhenRouteButNoResource(t *testing.T) {
	we := api.WalkEncounter{
		Origin: api.WalkRoot{Path: "/proj/src"},
		Entry:  api.WalkEntry{Path: "about.sql", IsFile: true},
	}
	content := []byte(`-- @route.path "/about"
-- @route.caption "About"
select 1;
`)
	cat, err := BuildCatalog(we, content, testConfig(), "/about")
	require.NoError(t, err)

	assert.Equal(t, api.NaturePage, cat.Resource.Nature)
	assert.True(t, cat.Resource.IsSystemGenerated)
	require.NotNil(t, cat.Route)
	assert.Equal(t, "/about", cat.Route.Path)
}

func TestBuildCatalogNoAnnotationsYieldsPlainResource(t *testing.T) {
	we := api.WalkEncounter{
		Origin: api.WalkRoot{Path: "/proj/src"},
		Entry:  api.WalkEntry{Path: "plain.sql", IsFile: true},
	}
	cat, err := BuildCatalog(we, []byte("select 1;\n"), testConfig(), "/plain.sql")
	require.NoError(t, err)

	assert.Equal(t, api.NatureResource, cat.Resource.Nature)
	assert.False(t, cat.Resource.IsSystemGenerated)
	assert.Nil(t, cat.Route)
}

func TestBuildCatalogInvalidNatureRecordsError(t *testing.T) {
	we := api.WalkEncounter{
		Origin: api.WalkRoot{Path: "/proj/src"},
		Entry:  api.WalkEntry{Path: "broken.sql", IsFile: true},
	}
	content := []byte(`-- @spry.nature "not-a-real-nature"
select 1;
`)
	cat, err := BuildCatalog(we, content, testConfig(), "/broken.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Errors)
}
