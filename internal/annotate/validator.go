package annotate

import (
	"fmt"
	"sort"
	"strings"
)

// GroupState is the state-machine position a key-prefix group occupies:
// SCAN (items collected) -> GROUPED (keys mapped into a bucket) ->
// VALID | INVALID | ABSENT.
type GroupState string

const (
	StateScan    GroupState = "scan"
	StateGrouped GroupState = "grouped"
	StateValid   GroupState = "valid"
	StateInvalid GroupState = "invalid"
	StateAbsent  GroupState = "absent"
)

// Group is one family of annotation items sharing a key prefix (e.g. all
// keys beginning "spry.").
type Group struct {
	Prefix string
	State  GroupState
	Fields map[string]any // suffix (after prefix) -> last-writer-wins value
	Errors []error
}

// GroupError records a single field-level validation failure.
type GroupError struct {
	Prefix string
	Field  string
	Reason string
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("annotate: %s%s: %s", e.Prefix, e.Field, e.Reason)
}

// Rule validates or defaults one field of a Group. GroupItems and
// applySchema never call BeforeParse, and no hook runs when a group
// becomes INVALID or ABSENT: the group's State and Errors are the only
// outcome.
type Rule struct {
	Field        string
	Required     bool
	Default      any
	Validate     func(value any) error
	BeforeParse  func(raw string) error
}

// Schema is a named set of rules keyed by field suffix, applied to every
// group sharing the schema's prefix.
type Schema struct {
	Prefix string
	Rules  []Rule
	Multi  bool // when false, a repeated field is a validation error
}

// GroupItems partitions items into groups by matching each item's Key
// against every schema's Prefix (longest prefix wins on overlap).
func GroupItems(items []AnnotationItemLike, schemas []Schema) map[string]*Group {
	byPrefix := make(map[string]*Schema, len(schemas))
	var prefixes []string
	for i := range schemas {
		s := &schemas[i]
		byPrefix[s.Prefix] = s
		prefixes = append(prefixes, s.Prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	groups := make(map[string]*Group)
	for _, it := range items {
		prefix, ok := matchPrefix(it.GetKey(), prefixes)
		if !ok {
			continue
		}
		g, ok := groups[prefix]
		if !ok {
			g = &Group{Prefix: prefix, State: StateScan, Fields: make(map[string]any)}
			groups[prefix] = g
		}
		field := strings.TrimPrefix(it.GetKey(), prefix)
		schema := byPrefix[prefix]
		if _, exists := g.Fields[field]; exists && !schema.Multi {
			g.Errors = append(g.Errors, &GroupError{Prefix: prefix, Field: field, Reason: "duplicate field"})
		}
		g.Fields[field] = it.GetValue()
	}
	for prefix, g := range groups {
		g.State = StateGrouped
		applySchema(g, byPrefix[prefix])
	}
	return groups
}

// AnnotationItemLike is the minimal shape GroupItems needs from an
// annotation item, satisfied by api.AnnotationItem via an adapter in
// catalog.go.
type AnnotationItemLike interface {
	GetKey() string
	GetValue() any
}

func matchPrefix(key string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return p, true
		}
	}
	return "", false
}

// applySchema runs every rule against g, filling defaults and moving g into
// VALID, INVALID, or ABSENT.
func applySchema(g *Group, schema *Schema) {
	if schema == nil {
		g.State = StateValid
		return
	}

	for _, rule := range schema.Rules {
		value, present := g.Fields[rule.Field]
		if !present {
			if rule.Required {
				g.Errors = append(g.Errors, &GroupError{Prefix: g.Prefix, Field: rule.Field, Reason: "required field absent"})
				continue
			}
			if rule.Default != nil {
				g.Fields[rule.Field] = rule.Default
				value = rule.Default
			} else {
				continue
			}
		}
		if rule.Validate != nil {
			if err := rule.Validate(value); err != nil {
				g.Errors = append(g.Errors, &GroupError{Prefix: g.Prefix, Field: rule.Field, Reason: err.Error()})
			}
		}
	}

	switch {
	case len(g.Fields) == 0:
		g.State = StateAbsent
	case len(g.Errors) > 0:
		g.State = StateInvalid
	default:
		g.State = StateValid
	}
}
