package lint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spryctl/spryctl/api"
)

// Predicate is one node of the lint query DSL. It compiles to a SQL WHERE
// fragment plus its bound arguments.
type Predicate interface {
	compile() (string, []any)
}

type andPred struct{ terms []Predicate }
type orPred struct{ terms []Predicate }
type notPred struct{ term Predicate }
type rulePred struct{ id string }
type severityPred struct{ level api.Severity }
type containsPred struct {
	field string
	value string
}

func And(terms ...Predicate) Predicate { return andPred{terms} }
func Or(terms ...Predicate) Predicate   { return orPred{terms} }
func Not(term Predicate) Predicate      { return notPred{term} }
func Rule(id string) Predicate          { return rulePred{id} }
func SeverityAtLeast(level api.Severity) Predicate {
	return severityPred{level}
}
func Contains(field, value string) Predicate { return containsPred{field, value} }

func (p andPred) compile() (string, []any) { return joinPreds(p.terms, " AND ") }
func (p orPred) compile() (string, []any)  { return joinPreds(p.terms, " OR ") }

func (p notPred) compile() (string, []any) {
	sql, args := p.term.compile()
	return "NOT (" + sql + ")", args
}

func (p rulePred) compile() (string, []any) { return "rule = ?", []any{p.id} }

var severityRank = map[api.Severity]int{
	api.SeverityOff: 0, api.SeverityHint: 1, api.SeverityInfo: 2,
	api.SeverityWarn: 3, api.SeverityError: 4,
}

func (p severityPred) compile() (string, []any) {
	// severity is stored as text; compare against every rank >= the
	// threshold since SQLite has no enum ordering of our text values.
	var levels []string
	for sev, rank := range severityRank {
		if rank >= severityRank[p.level] {
			levels = append(levels, string(sev))
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(levels)), ",")
	args := make([]any, len(levels))
	for i, l := range levels {
		args[i] = l
	}
	return fmt.Sprintf("severity IN (%s)", placeholders), args
}

func (p containsPred) compile() (string, []any) {
	switch p.field {
	case "message":
		return "message LIKE ?", []any{"%" + p.value + "%"}
	case "content":
		return "content LIKE ?", []any{"%" + p.value + "%"}
	default:
		return "data_json LIKE ?", []any{"%" + p.value + "%"}
	}
}

func joinPreds(terms []Predicate, sep string) (string, []any) {
	if len(terms) == 0 {
		return "1=1", nil
	}
	var parts []string
	var args []any
	for _, t := range terms {
		sql, a := t.compile()
		parts = append(parts, "("+sql+")")
		args = append(args, a...)
	}
	return strings.Join(parts, sep), args
}

// Query returns every finding matching pred, in insertion order. A nil
// pred matches everything.
func (r *Registry) Query(pred Predicate) ([]api.LintFinding, error) {
	return r.query(pred, 0)
}

// First returns the first n findings matching pred (or every rule's
// findings if pred is nil), in insertion order.
func (r *Registry) First(n int, pred Predicate) ([]api.LintFinding, error) {
	return r.query(pred, n)
}

func (r *Registry) query(pred Predicate, limit int) ([]api.LintFinding, error) {
	where, args := "1=1", []any(nil)
	if pred != nil {
		where, args = pred.compile()
	}

	q := fmt.Sprintf("SELECT id, rule, code, content, severity, message, range_json, data_json, tags_json FROM findings WHERE %s ORDER BY rowid", where)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("lint: query: %w", err)
	}
	defer rows.Close()

	var out []api.LintFinding
	for rows.Next() {
		var f api.LintFinding
		var severity string
		var rangeJSON, dataJSON, tagsJSON sql.NullString
		if err := rows.Scan(&f.ID, &f.Rule, &f.Code, &f.Content, &severity, &f.Message, &rangeJSON, &dataJSON, &tagsJSON); err != nil {
			return nil, fmt.Errorf("lint: scan row: %w", err)
		}
		f.Severity = api.Severity(severity)
		if rangeJSON.Valid {
			var rng api.LintRange
			if err := json.Unmarshal([]byte(rangeJSON.String), &rng); err == nil {
				f.Range = &rng
			}
		}
		if dataJSON.Valid {
			_ = json.Unmarshal([]byte(dataJSON.String), &f.Data)
		}
		if tagsJSON.Valid {
			_ = json.Unmarshal([]byte(tagsJSON.String), &f.Tags)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ExportJSON renders every finding matching pred as stable JSON carrying a
// schema marker, for the run report.
func (r *Registry) ExportJSON(pred Predicate) ([]byte, error) {
	findings, err := r.Query(pred)
	if err != nil {
		return nil, err
	}
	envelope := struct {
		Schema   string           `json:"$schema"`
		Findings []api.LintFinding `json:"findings"`
	}{Schema: "spryctl.lint.findings/v1", Findings: findings}
	return json.MarshalIndent(envelope, "", "  ")
}
