// Package lint is the lint registry: a typed rule registry with
// content-addressed findings persisted to a private SQLite connection,
// supporting multiple rules, multiple languages, idempotent merges, and a
// composable query DSL over the result set.
package lint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"github.com/spryctl/spryctl/api"
)

// RuleDef describes one registered rule: the enum (or free-form) codes it
// may emit, its default severity, and the shape of its Data payload.
type RuleDef struct {
	ID              string
	Codes           []string // empty = free-form string codes
	DefaultSeverity api.Severity
}

// Registry is a run-scoped, SQLite-backed lint finding store.
type Registry struct {
	db    *sql.DB
	rules map[string]RuleDef
}

const schema = `
CREATE TABLE IF NOT EXISTS findings (
  id       TEXT PRIMARY KEY,
  rule     TEXT NOT NULL,
  code     TEXT NOT NULL,
  content  TEXT NOT NULL,
  severity TEXT NOT NULL,
  message  TEXT NOT NULL,
  range_json TEXT,
  data_json  TEXT,
  tags_json  TEXT
);
`

// Open opens a new registry. path may be "file::memory:?cache=shared" for
// an ephemeral, run-scoped store, or a filesystem path to persist findings
// across invocations (e.g. repeated `spryctl ls` calls in one session).
func Open(path string) (*Registry, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("lint: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("lint: create schema: %w", err)
	}
	return &Registry{db: db, rules: make(map[string]RuleDef)}, nil
}

// Close releases the registry's SQLite connection.
func (r *Registry) Close() error { return r.db.Close() }

// Register adds a rule definition. Re-registering the same ID overwrites
// its definition.
func (r *Registry) Register(def RuleDef) { r.rules[def.ID] = def }

// ComputeID content-addresses a finding: id = hash(rule, code, content,
// range?, message, canonical(data)).
func ComputeID(f api.LintFinding) (string, error) {
	canonicalData, err := canonicalize(f.Data)
	if err != nil {
		return "", fmt.Errorf("lint: canonicalize data: %w", err)
	}

	h := xxhash.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s", f.Rule, f.Code, f.Content, f.Message, canonicalData)
	if f.Range != nil {
		fmt.Fprintf(h, "\x00%d:%d:%d:%d", f.Range.Line, f.Range.Col, f.Range.EndLine, f.Range.EndCol)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// canonicalize renders data as JSON with sorted map keys so identical
// logical content always hashes the same regardless of map iteration
// order.
func canonicalize(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 64)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(data[k])
		if err != nil {
			return "", err
		}
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')
	return string(ordered), nil
}

// Merge inserts f (computing its ID if unset), ignoring the insert if an
// identical ID already exists. Merge is idempotent by construction.
func (r *Registry) Merge(f api.LintFinding) (api.LintFinding, error) {
	if f.Severity == "" {
		if def, ok := r.rules[f.Rule]; ok {
			f.Severity = def.DefaultSeverity
		}
	}
	if f.ID == "" {
		id, err := ComputeID(f)
		if err != nil {
			return f, err
		}
		f.ID = id
	}

	rangeJSON, err := marshalOptional(f.Range)
	if err != nil {
		return f, err
	}
	dataJSON, err := marshalOptional(f.Data)
	if err != nil {
		return f, err
	}
	tagsJSON, err := marshalOptional(f.Tags)
	if err != nil {
		return f, err
	}

	_, err = r.db.Exec(
		`INSERT OR IGNORE INTO findings (id, rule, code, content, severity, message, range_json, data_json, tags_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Rule, f.Code, f.Content, string(f.Severity), f.Message, rangeJSON, dataJSON, tagsJSON,
	)
	if err != nil {
		return f, fmt.Errorf("lint: merge finding %s: %w", f.ID, err)
	}
	return f, nil
}

func marshalOptional(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
