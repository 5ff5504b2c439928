// Package pathtree builds the path-tree forest: a hierarchical tree over
// slash-delimited paths, synthesizing empty container nodes so every
// payload has a full chain of ancestors.
package pathtree

import (
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Options controls forest construction.
type Options struct {
	PathDelim            string
	SynthesizeContainers bool
	FolderFirst          bool
	IndexBasenames       []string
	ForceAbsolute        bool
}

// DefaultOptions returns the documented construction defaults.
func DefaultOptions() Options {
	return Options{
		PathDelim:            "/",
		SynthesizeContainers: true,
		FolderFirst:          true,
		IndexBasenames:       []string{"index", "index.sql", "index.md", "index.html"},
		ForceAbsolute:        true,
	}
}

// Node is one path-tree node. Virtual nodes carry no payload and exist only
// to hold children.
type Node struct {
	Path     string
	Name     string
	Children []*Node
	Payloads []any
	Virtual  bool

	parent *Node
}

// Forest is the built tree, plus enough index state to answer
// canonical-path and breadcrumb queries.
type Forest struct {
	Roots   []*Node
	opts    Options
	byPath  map[string]*Node
	nodeIdx map[any]*Node // payload identity -> owning node, for Ancestry
}

// PathFunc extracts the slash-delimited path of a payload.
type PathFunc func(payload any) string

// Build constructs a Forest from payloads using fn to derive each
// payload's path: normalize, bucket, synthesize containers, link, sort.
func Build(payloads []any, fn PathFunc, opts Options) *Forest {
	if opts.PathDelim == "" {
		opts = DefaultOptions()
	}

	buckets := orderedmap.New[string, []any]()
	order := func(p string) {
		if _, ok := buckets.Get(p); !ok {
			buckets.Set(p, nil)
		}
	}

	nodeIdx := make(map[any]*Node)
	for _, payload := range payloads {
		p := normalize(fn(payload), opts)
		order(p)
		v, _ := buckets.Get(p)
		buckets.Set(p, append(v, payload))
	}

	if opts.SynthesizeContainers {
		// Walk every bucketed path to the root, ensuring every ancestor
		// container exists as an (initially empty) bucket too.
		var paths []string
		for pair := buckets.Oldest(); pair != nil; pair = pair.Next() {
			paths = append(paths, pair.Key)
		}
		for _, p := range paths {
			for parent := parentOf(p, opts); parent != ""; parent = parentOf(parent, opts) {
				order(parent)
			}
		}
	}

	nodes := make(map[string]*Node, buckets.Len())
	for pair := buckets.Oldest(); pair != nil; pair = pair.Next() {
		n := &Node{
			Path:     pair.Key,
			Name:     baseName(pair.Key, opts),
			Payloads: pair.Value,
			Virtual:  len(pair.Value) == 0,
		}
		nodes[pair.Key] = n
		for _, payload := range pair.Value {
			nodeIdx[payload] = n
		}
	}

	var roots []*Node
	for pair := buckets.Oldest(); pair != nil; pair = pair.Next() {
		n := nodes[pair.Key]
		parentPath := parentOf(pair.Key, opts)
		if parentPath == "" {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[parentPath]
		if !ok {
			roots = append(roots, n)
			continue
		}
		n.parent = parent
		parent.Children = append(parent.Children, n)
	}

	var sortChildren func(n *Node)
	sortChildren = func(n *Node) {
		sort.SliceStable(n.Children, func(i, j int) bool {
			return less(n.Children[i], n.Children[j], opts)
		})
		for _, c := range n.Children {
			sortChildren(c)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool { return less(roots[i], roots[j], opts) })
	for _, r := range roots {
		sortChildren(r)
	}

	return &Forest{Roots: roots, opts: opts, byPath: nodes, nodeIdx: nodeIdx}
}

// less implements the forest's folder-first / name / path tie-break order.
func less(a, b *Node, opts Options) bool {
	if opts.FolderFirst {
		aDir, bDir := len(a.Children) > 0 || a.Virtual, len(b.Children) > 0 || b.Virtual
		if aDir != bDir {
			return aDir
		}
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Path < b.Path
}

func normalize(p string, opts Options) string {
	delim := opts.PathDelim
	parts := strings.Split(p, delim)
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	joined := strings.Join(kept, delim)
	if opts.ForceAbsolute {
		return delim + joined
	}
	return joined
}

func parentOf(p string, opts Options) string {
	delim := opts.PathDelim
	trimmed := strings.TrimPrefix(p, delim)
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndex(trimmed, delim)
	if idx < 0 {
		// A single-segment path (e.g. "/spry") has no parent container —
		// it is a root, not a child of a synthesized "/".
		return ""
	}
	parent := trimmed[:idx]
	if opts.ForceAbsolute {
		return delim + parent
	}
	return parent
}

func baseName(p string, opts Options) string {
	delim := opts.PathDelim
	trimmed := strings.TrimSuffix(p, delim)
	idx := strings.LastIndex(trimmed, delim)
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}

// IsIndexChild reports whether name is one of the forest's configured
// index basenames.
func (f *Forest) IsIndexChild(name string) bool {
	for _, b := range f.opts.IndexBasenames {
		if b == name {
			return true
		}
	}
	return false
}

// indexChild returns n's child whose basename is an index basename, if any.
func (f *Forest) indexChild(n *Node) *Node {
	for _, c := range n.Children {
		if !c.Virtual && f.IsIndexChild(c.Name) {
			return c
		}
	}
	return nil
}

// CanonicalPath is the index child's path if container has one, else the
// container's own path.
func (f *Forest) CanonicalPath(container *Node) string {
	if idx := f.indexChild(container); idx != nil {
		return idx.Path
	}
	return container.Path
}

// BreadcrumbParent is the canonical path of path's grandparent container,
// or "" if path has no grandparent.
func (f *Forest) BreadcrumbParent(path string) string {
	n, ok := f.byPath[path]
	if !ok || n.parent == nil || n.parent.parent == nil {
		return ""
	}
	return f.CanonicalPath(n.parent.parent)
}

// Ancestry walks payload's node up through BreadcrumbParent links and
// returns the chain root-first.
func (f *Forest) Ancestry(payload any) []string {
	n, ok := f.nodeIdx[payload]
	if !ok {
		return nil
	}
	var chain []string
	cur := n.Path
	for cur != "" {
		chain = append(chain, cur)
		cur = f.BreadcrumbParent(cur)
	}
	reverse(chain)
	return chain
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
