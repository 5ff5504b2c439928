// Package api holds the shared data-model types that flow between spryctl's
// subsystems: walk encounters, annotation items, the resource/route tagged
// unions, path-tree nodes, foundry records, and lint findings.
package api

import "encoding/json"

// WalkRoot identifies one root a Walker was constructed against.
type WalkRoot struct {
	Path string
	Opts WalkOptions
}

// WalkOptions controls what a Walker yields for a given root.
type WalkOptions struct {
	Extensions      []string // empty = no extension filter
	IncludeFiles    bool
	IncludeDirs     bool
	IncludeSymlinks bool
	FollowSymlinks  bool
	Canonicalize    bool
}

// WalkEntry is one filesystem entry observed during a walk.
type WalkEntry struct {
	Path      string // path relative to the root that produced it
	IsFile    bool
	IsSymlink bool
	Mode      uint32 // os.FileMode bits, 0 if unknown
}

// WalkEncounter pairs an entry with the root it was found under.
type WalkEncounter struct {
	Origin WalkRoot
	Entry  WalkEntry
}

// AbsPath returns the encounter's absolute filesystem path.
func (e WalkEncounter) AbsPath() string {
	if e.Entry.Path == "" {
		return e.Origin.Path
	}
	return e.Origin.Path + "/" + e.Entry.Path
}

// AnnotationKind discriminates a bare @tag from a key: value pair.
type AnnotationKind string

const (
	KindTag AnnotationKind = "tag"
	KindKV  AnnotationKind = "kv"
)

// Loc is a 1-based source location.
type Loc struct {
	Line int
	Col  int
}

// AnnotationItem is one recognized tag or key/value pair extracted from a
// comment span, in source order.
type AnnotationItem struct {
	Kind  AnnotationKind
	Key   string
	Value any // parsed JSON value, or nil
	Raw   string
	Loc   Loc
}

// ResourceNature discriminates the tagged union of resource annotations.
type ResourceNature string

const (
	NatureAction  ResourceNature = "action"
	NatureAPI     ResourceNature = "api"
	NaturePage    ResourceNature = "page"
	NaturePartial ResourceNature = "partial"
	NatureSQL     ResourceNature = "sql"
	NatureResource ResourceNature = "resource"
	NatureFoundry ResourceNature = "foundry"
)

// SQLImpact classifies the kind of SQL a `sql`-nature resource performs, or
// the shape a `resource`-nature resource returns.
type SQLImpact string

const (
	ImpactDQL     SQLImpact = "dql"
	ImpactDML     SQLImpact = "dml"
	ImpactDDL     SQLImpact = "ddl"
	ImpactUnknown SQLImpact = "unknown"
	ImpactJSON    SQLImpact = "json"
)

// FoundryDependsOn enumerates what a foundry annotation says it depends on.
type FoundryDependsOn string

const (
	DependsNone       FoundryDependsOn = "none"
	DependsDBAfterBuild FoundryDependsOn = "db-after-build"
)

// ResourceAnnotation is a `nature`-discriminated tagged union. Variant-
// specific fields are zero-valued when not applicable to the current
// Nature.
type ResourceAnnotation struct {
	Nature ResourceNature

	AbsFsPath         string
	RelFsPath         string
	WebPath           string
	IsSystemGenerated bool

	// nature == sql
	SQLImpact SQLImpact

	// nature == foundry
	RunBeforeAnnCatalog bool
	RunAfterAnnCatalog  bool
	DependsOn           FoundryDependsOn
	IsCleanable         bool
}

// RouteAnnotation is the navigation metadata attached to a resource.
type RouteAnnotation struct {
	Path     string `json:"path"`
	Caption  string `json:"caption"`

	PathBasename       string `json:"pathBasename,omitempty"`
	PathBasenameNoExtn string `json:"pathBasenameNoExtn,omitempty"`
	PathDirname        string `json:"pathDirname,omitempty"`
	PathExtnTerminal   string `json:"pathExtnTerminal,omitempty"`
	PathExtns          string `json:"pathExtns,omitempty"`

	SiblingOrder       *int            `json:"siblingOrder,omitempty"`
	URL                string          `json:"url,omitempty"`
	Title              string          `json:"title,omitempty"`
	AbbreviatedCaption string          `json:"abbreviatedCaption,omitempty"`
	Description        string          `json:"description,omitempty"`
	Elaboration        json.RawMessage `json:"elaboration,omitempty"`
	Children           []RouteChildRef `json:"children,omitempty"`
}

// RouteChildRef is a forward-declared child path reference within a route
// annotation (the route itself may not exist yet when this is parsed).
type RouteChildRef struct {
	Path string `json:"path"`
}

// ParsedFileName is the result of classifying a foundry's basename into
// its nature segment, runner extension, and auto-materialization target.
type ParsedFileName struct {
	Auto bool

	// Auto == false
	FileName string
	Extn     string

	// Auto == true
	Basename string // "<name>.auto.<nature>"
	Path     string // absolute materialization target
	Base     string
	NatureSeg string
	ExtnSeg   string
}

// FoundryRecord is a discovered foundry: its walk encounter, resource
// annotation, and parsed filename.
type FoundryRecord struct {
	WE  WalkEncounter
	Ann ResourceAnnotation
	PFN ParsedFileName
}

// Severity is a lint finding's severity level, ordered from least to most
// severe.
type Severity string

const (
	SeverityOff   Severity = "off"
	SeverityHint  Severity = "hint"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// LintFinding is one content-addressed diagnostic.
type LintFinding struct {
	ID       string
	Rule     string
	Code     string
	Content  string
	Severity Severity
	Message  string
	Range    *LintRange
	Data     map[string]any
	Tags     []string
}

// LintRange is an optional content-relative location for a finding.
type LintRange struct {
	Line   int
	Col    int
	EndLine int
	EndCol  int
}

// ProjectConfig is the ambient, HCL-loaded project configuration: the
// shared-library symlink name, the auto-distribution directory, the
// annotation tag prefixes, and workflow toggles.
type ProjectConfig struct {
	ProjectHome       string            `hcl:"project_home"`
	SharedLibraryRel  string            `hcl:"shared_library_rel,optional"`
	SharedLibraryName string            `hcl:"shared_library_name,optional"`
	AutoDistDir       string            `hcl:"auto_dist_dir,optional"`
	PolicyDistDir     string            `hcl:"policy_dist_dir,optional"`
	IndexBasenames    []string          `hcl:"index_basenames,optional"`
	TagPrefixes       map[string]string `hcl:"tag_prefixes,optional"`
	Workflow          *WorkflowConfig   `hcl:"workflow,block"`
}

// WorkflowConfig is the nested `workflow { ... }` HCL block.
type WorkflowConfig struct {
	BeforeClean       bool `hcl:"before_clean,optional"`
	ParallelFoundries bool `hcl:"parallel_foundries,optional"`
}
