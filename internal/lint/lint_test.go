package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spryctl/spryctl/api"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestMergeIsIdempotent(t *testing.T) {
	reg := openTestRegistry(t)
	f := api.LintFinding{Rule: "no-nil-slice", Code: "NIL_SLICE", Content: "var x []int", Severity: api.SeverityWarn, Message: "avoid nil slices"}

	merged1, err := reg.Merge(f)
	require.NoError(t, err)
	merged2, err := reg.Merge(f)
	require.NoError(t, err)
	assert.Equal(t, merged1.ID, merged2.ID)

	all, err := reg.Query(nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMergeDistinctContentProducesDistinctIDs(t *testing.T) {
	reg := openTestRegistry(t)
	a := api.LintFinding{Rule: "r", Code: "C", Content: "a", Message: "m"}
	b := api.LintFinding{Rule: "r", Code: "C", Content: "b", Message: "m"}

	ma, err := reg.Merge(a)
	require.NoError(t, err)
	mb, err := reg.Merge(b)
	require.NoError(t, err)
	assert.NotEqual(t, ma.ID, mb.ID)
}

func TestQueryByRuleAndSeverity(t *testing.T) {
	reg := openTestRegistry(t)
	_, err := reg.Merge(api.LintFinding{Rule: "r1", Code: "A", Content: "x", Severity: api.SeverityWarn, Message: "m1"})
	require.NoError(t, err)
	_, err = reg.Merge(api.LintFinding{Rule: "r2", Code: "B", Content: "y", Severity: api.SeverityInfo, Message: "m2"})
	require.NoError(t, err)

	results, err := reg.Query(Rule("r1"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].Rule)

	warnOrAbove, err := reg.Query(SeverityAtLeast(api.SeverityWarn))
	require.NoError(t, err)
	require.Len(t, warnOrAbove, 1)
	assert.Equal(t, "r1", warnOrAbove[0].Rule)
}

func TestQueryAndOrNot(t *testing.T) {
	reg := openTestRegistry(t)
	_, err := reg.Merge(api.LintFinding{Rule: "r1", Code: "A", Content: "x", Message: "contains foo"})
	require.NoError(t, err)
	_, err = reg.Merge(api.LintFinding{Rule: "r2", Code: "B", Content: "y", Message: "contains bar"})
	require.NoError(t, err)

	results, err := reg.Query(And(Rule("r1"), Contains("message", "foo")))
	require.NoError(t, err)
	assert.Len(t, results, 1)

	notR1, err := reg.Query(Not(Rule("r1")))
	require.NoError(t, err)
	assert.Len(t, notR1, 1)
	assert.Equal(t, "r2", notR1[0].Rule)
}

func TestFirstLimitsInInsertionOrder(t *testing.T) {
	reg := openTestRegistry(t)
	for i := 0; i < 3; i++ {
		_, err := reg.Merge(api.LintFinding{Rule: "r", Code: "C", Content: string(rune('a' + i)), Message: "m"})
		require.NoError(t, err)
	}
	first, err := reg.First(2, nil)
	require.NoError(t, err)
	assert.Len(t, first, 2)
}
