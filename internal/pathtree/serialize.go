package pathtree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// jsonNode is the JSON export shape for one Node.
type jsonNode struct {
	Path     string     `json:"path"`
	Name     string     `json:"name"`
	Virtual  bool       `json:"virtual,omitempty"`
	Payloads []any      `json:"payloads,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func toJSONNode(n *Node) jsonNode {
	jn := jsonNode{Path: n.Path, Name: n.Name, Virtual: n.Virtual, Payloads: n.Payloads}
	for _, c := range n.Children {
		jn.Children = append(jn.Children, toJSONNode(c))
	}
	return jn
}

// JSON serializes the entire forest as an array of root nodes.
func (f *Forest) JSON() ([]byte, error) {
	var roots []jsonNode
	for _, r := range f.Roots {
		roots = append(roots, toJSONNode(r))
	}
	return json.Marshal(roots)
}

// Edge is one (parent path, child path) pair.
type Edge struct {
	Parent string
	Child  string
}

// Edges flattens the forest into parent/child pairs.
func (f *Forest) Edges() []Edge {
	var edges []Edge
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			edges = append(edges, Edge{Parent: n.Path, Child: c.Path})
			walk(c)
		}
	}
	for _, r := range f.Roots {
		walk(r)
	}
	return edges
}

// Row is one flattened tabular record.
type Row struct {
	Name               string
	Path               string
	BreadcrumbPath     string
	ContainerIndexPath string
	Virtual            bool
	Payload            any
}

// Table flattens the forest into rows, one per (node, payload) — nodes with
// no payload emit a single row with Payload == nil.
func (f *Forest) Table() []Row {
	var rows []Row
	var walk func(n *Node)
	walk = func(n *Node) {
		containerIndexPath := ""
		if n.parent != nil {
			containerIndexPath = f.CanonicalPath(n.parent)
		}
		if len(n.Payloads) == 0 {
			rows = append(rows, Row{
				Name: n.Name, Path: n.Path,
				BreadcrumbPath:     f.BreadcrumbParent(n.Path),
				ContainerIndexPath: containerIndexPath,
				Virtual:            n.Virtual,
			})
		}
		for _, p := range n.Payloads {
			rows = append(rows, Row{
				Name: n.Name, Path: n.Path,
				BreadcrumbPath:     f.BreadcrumbParent(n.Path),
				ContainerIndexPath: containerIndexPath,
				Virtual:            n.Virtual,
				Payload:            p,
			})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range f.Roots {
		walk(r)
	}
	return rows
}

// ASCII renders the forest as an indented tree, one line per node.
func (f *Forest) ASCII() string {
	var b strings.Builder
	var walk func(n *Node, prefix string, last bool)
	walk = func(n *Node, prefix string, last bool) {
		connector := "├── "
		if last {
			connector = "└── "
		}
		if prefix == "" {
			fmt.Fprintf(&b, "%s\n", n.Name)
		} else {
			fmt.Fprintf(&b, "%s%s%s\n", prefix, connector, n.Name)
		}
		childPrefix := prefix
		if prefix != "" {
			if last {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		} else {
			childPrefix = "    "
		}
		for i, c := range n.Children {
			walk(c, childPrefix, i == len(n.Children)-1)
		}
	}
	for i, r := range f.Roots {
		walk(r, "", i == len(f.Roots)-1)
	}
	return b.String()
}
