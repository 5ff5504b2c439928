// Package deploy is the deploy-SQL emitter: it concatenates head DDL, a
// delete+insert pair per discovered SQL-page file (sorted by web path),
// and tail DDL into one deterministic byte stream. String building favors
// a prepared-statement batching discipline, adapted from SQLite row
// inserts to generated SQL text.
package deploy

import (
	"fmt"
	"sort"
	"strings"
)

// PageFile is one source file destined for the sqlpage_files table.
type PageFile struct {
	WebPath  string
	Contents []byte
}

// Emit renders head, one delete+insert pair per page (sorted by WebPath),
// then tail, framed by the fixed "-- head/tail SQL begin/end" and
// "-- sqlpage_files rows --" markers. Contents are never newline-
// normalized; only embedded single quotes are escaped.
func Emit(head []byte, pages []PageFile, tail []byte) []byte {
	sorted := append([]PageFile(nil), pages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].WebPath < sorted[j].WebPath })

	var b strings.Builder

	b.WriteString("-- head SQL begin\n")
	b.Write(head)
	if len(head) > 0 && !strings.HasSuffix(string(head), "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("-- head SQL end\n")

	b.WriteString("-- sqlpage_files rows --\n")
	for _, p := range sorted {
		path := sqlQuote(p.WebPath)
		contents := sqlQuote(string(p.Contents))
		fmt.Fprintf(&b, "delete from \"sqlpage_files\" where \"path\" = %s;\n", path)
		fmt.Fprintf(&b, "insert into \"sqlpage_files\" (\"path\",\"contents\") values (%s,%s);\n", path, contents)
	}

	b.WriteString("-- tail SQL begin\n")
	b.Write(tail)
	if len(tail) > 0 && !strings.HasSuffix(string(tail), "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("-- tail SQL end\n")

	return []byte(b.String())
}

// sqlQuote renders s as a single-quoted SQL string literal, doubling every
// embedded single quote per standard SQL escaping. No other escaping or
// newline normalization is applied.
func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
