package deploy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitOrdersByWebPath(t *testing.T) {
	pages := []PageFile{
		{WebPath: "/b.sql", Contents: []byte("select 2;")},
		{WebPath: "/a.sql", Contents: []byte("select 1;")},
	}
	out := string(Emit([]byte("seed();"), pages, []byte("done();")))

	aIdx := strings.Index(out, "'/a.sql'")
	bIdx := strings.Index(out, "'/b.sql'")
	headIdx := strings.Index(out, "seed();")
	tailIdx := strings.Index(out, "done();")

	assert.True(t, headIdx < aIdx)
	assert.True(t, aIdx < bIdx)
	assert.True(t, bIdx < tailIdx)
	assert.Contains(t, out, "-- head SQL begin\n")
	assert.Contains(t, out, "-- head SQL end\n")
	assert.Contains(t, out, "-- tail SQL begin\n")
	assert.Contains(t, out, "-- tail SQL end\n")
	assert.Contains(t, out, "-- sqlpage_files rows --\n")
}

func TestEmitEscapesQuotes(t *testing.T) {
	pages := []PageFile{{WebPath: "/it's.sql", Contents: []byte("select 'x';")}}
	out := string(Emit(nil, pages, nil))
	assert.Contains(t, out, `'/it''s.sql'`)
	assert.Contains(t, out, `'select ''x'';'`)
}

func TestEmitProducesDeleteThenInsertPerFile(t *testing.T) {
	pages := []PageFile{{WebPath: "/a.sql", Contents: []byte("select 1;")}}
	out := string(Emit(nil, pages, nil))
	delIdx := strings.Index(out, `delete from "sqlpage_files"`)
	insIdx := strings.Index(out, `insert into "sqlpage_files"`)
	assert.True(t, delIdx >= 0 && insIdx > delIdx)
}
