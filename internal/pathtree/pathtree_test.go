package pathtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	path string
}

func pathOf(p any) string { return p.(*payload).path }

func TestBuildSynthesizesContainers(t *testing.T) {
	a := &payload{"/widgets/index.sql"}
	b := &payload{"/widgets/create.sql"}
	forest := Build([]any{a, b}, pathOf, DefaultOptions())

	require.Len(t, forest.Roots, 1)
	widgets := forest.Roots[0]
	assert.Equal(t, "/widgets", widgets.Path)
	assert.True(t, widgets.Virtual)
	assert.Len(t, widgets.Children, 2)
}

func TestCanonicalPathPrefersIndexChild(t *testing.T) {
	a := &payload{"/widgets/index.sql"}
	b := &payload{"/widgets/create.sql"}
	forest := Build([]any{a, b}, pathOf, DefaultOptions())

	widgets := forest.Roots[0]
	assert.Equal(t, "/widgets/index.sql", forest.CanonicalPath(widgets))
}

// A single-segment path has no parent container: it is a root in its own
// right, not re-parented under a synthesized "/" node.
func TestBuildDoesNotSynthesizeRootContainer(t *testing.T) {
	items := []any{
		&payload{"/index.sql"},
		&payload{"/spry"},
		&payload{"/spry/index.sql"},
		&payload{"/spry/console/about.sql"},
		&payload{"/spry/console/info-schema/index.sql"},
	}
	forest := Build(items, pathOf, DefaultOptions())

	require.Len(t, forest.Roots, 2)
	assert.Equal(t, []string{"/spry", "/index.sql"}, namesToPaths(forest.Roots))
}

func namesToPaths(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Path)
	}
	return out
}

func TestBreadcrumbParentAndAncestry(t *testing.T) {
	a := &payload{"/widgets/create.sql"}
	forest := Build([]any{a}, pathOf, DefaultOptions())

	ancestry := forest.Ancestry(a)
	require.NotEmpty(t, ancestry)
	assert.Equal(t, "/widgets/create.sql", ancestry[len(ancestry)-1])
}

func TestEdgesAndTable(t *testing.T) {
	a := &payload{"/widgets/create.sql"}
	forest := Build([]any{a}, pathOf, DefaultOptions())

	edges := forest.Edges()
	assert.NotEmpty(t, edges)

	rows := forest.Table()
	var found bool
	for _, r := range rows {
		if r.Path == "/widgets/create.sql" {
			found = true
			assert.Equal(t, a, r.Payload)
		}
	}
	assert.True(t, found)
}

func TestOrderingIsDeterministic(t *testing.T) {
	items := []any{
		&payload{"/b.sql"},
		&payload{"/a.sql"},
		&payload{"/c/index.sql"},
	}
	f1 := Build(items, pathOf, DefaultOptions())
	f2 := Build(items, pathOf, DefaultOptions())
	assert.Equal(t, namesOf(f1.Roots), namesOf(f2.Roots))
}

func namesOf(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}
