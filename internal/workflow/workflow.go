// Package workflow is the orchestration workflow: it sequences a single
// annotation-catalog pass, the clean step, the two foundry steps
// bracketing annotation drop-in, the directive pass, and the
// human-readable report, as one library-level orchestrator.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spryctl/spryctl/api"
	"github.com/spryctl/spryctl/internal/annotate"
	"github.com/spryctl/spryctl/internal/artifact"
	"github.com/spryctl/spryctl/internal/directive"
	"github.com/spryctl/spryctl/internal/foundry"
	"github.com/spryctl/spryctl/internal/fsroot"
	"github.com/spryctl/spryctl/internal/lint"
	"github.com/spryctl/spryctl/internal/pathtree"
	"github.com/spryctl/spryctl/internal/walker"
)

// CatalogEntry pairs one walked file with its resolved resource/route
// annotations and content.
type CatalogEntry struct {
	Encounter api.WalkEncounter
	Resource  api.ResourceAnnotation
	Route     *api.RouteAnnotation
	Items     []api.AnnotationItem
	Content   []byte
}

// RunOpts configures one orchestration pass.
type RunOpts struct {
	Clean             bool
	ParallelFoundries bool
	ProjectID         string
}

// Report summarizes one completed orchestration pass.
type Report struct {
	Catalog      []CatalogEntry
	Forest       *pathtree.Forest
	Findings     []api.LintFinding
	BeforeResult []foundry.Result
	AfterResult  []foundry.Result
}

// Orchestrator drives one project's build.
type Orchestrator struct {
	cfg      *api.ProjectConfig
	resolver *fsroot.Resolver
	registry *lint.Registry
	store    *artifact.Store
}

// New constructs an Orchestrator for a resolved project.
func New(cfg *api.ProjectConfig, resolver *fsroot.Resolver, registry *lint.Registry) (*Orchestrator, error) {
	store, err := artifact.New(filepath.Join(resolver.Root(fsroot.KindProjectSrcFs), strings.TrimPrefix(cfg.AutoDistDir, "src/")))
	if err != nil {
		return nil, err
	}
	return &Orchestrator{cfg: cfg, resolver: resolver, registry: registry, store: store}, nil
}

// Run executes one full orchestration pass: clean -> foundries(before) ->
// annotation drop-in -> foundries(after) -> report.
func (o *Orchestrator) Run(ctx context.Context, opts RunOpts) (*Report, error) {
	if opts.Clean {
		if err := o.clean(); err != nil {
			return nil, fmt.Errorf("workflow: clean: %w", err)
		}
	}

	catalog, err := o.buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("workflow: build catalog: %w", err)
	}

	records, err := o.discoverFoundries(catalog)
	if err != nil {
		return nil, fmt.Errorf("workflow: discover foundries: %w", err)
	}

	concurrency := 1
	if opts.ParallelFoundries {
		concurrency = -1 // errgroup.SetLimit(-1): unbounded, when the caller opts into concurrent foundries
	}
	contractFn := o.envContractFor(opts)

	before, err := foundry.Run(ctx, records, foundry.StepBeforeAnnCatalog, foundry.RunOpts{Concurrency: concurrency, Contract: contractFn})
	if err != nil {
		return nil, fmt.Errorf("workflow: before-ann-catalog foundries: %w", err)
	}
	o.materialize(before, records)

	if err := o.applyDirectives(catalog); err != nil {
		return nil, fmt.Errorf("workflow: apply directives: %w", err)
	}

	forest, err := o.dropInAnnotations(catalog)
	if err != nil {
		return nil, fmt.Errorf("workflow: drop in annotations: %w", err)
	}

	after, err := foundry.Run(ctx, records, foundry.StepAfterAnnCatalog, foundry.RunOpts{Concurrency: concurrency, Contract: contractFn})
	if err != nil {
		return nil, fmt.Errorf("workflow: after-ann-catalog foundries: %w", err)
	}
	o.materialize(after, records)

	findings, err := o.registry.Query(nil)
	if err != nil {
		return nil, fmt.Errorf("workflow: query lint findings: %w", err)
	}

	report := &Report{Catalog: catalog, Forest: forest, Findings: findings, BeforeResult: before, AfterResult: after}
	if err := o.writeReport(report); err != nil {
		return nil, fmt.Errorf("workflow: write report: %w", err)
	}
	return report, nil
}

// Clean runs foundry.Clean over every cleanable foundry (auto-materialized
// outputs are deleted, other foundries are invoked with DESTROY_CLEAN),
// then removes the auto-distribution directory, without running a full
// build.
func (o *Orchestrator) Clean(ctx context.Context, opts RunOpts) error {
	catalog, err := o.buildCatalog()
	if err != nil {
		return fmt.Errorf("workflow: build catalog: %w", err)
	}
	records, err := o.discoverFoundries(catalog)
	if err != nil {
		return fmt.Errorf("workflow: discover foundries: %w", err)
	}
	for _, res := range foundry.Clean(ctx, records, foundry.RunOpts{Contract: o.envContractFor(opts)}) {
		if res.Err != nil {
			_, _ = o.registry.Merge(api.LintFinding{
				Rule: "foundry-clean", Code: "CLEAN_FAILED",
				Content: res.Record.WE.Entry.Path, Severity: api.SeverityError, Message: res.Err.Error(),
			})
		}
	}
	return o.clean()
}

// clean removes the auto-distribution directory recursively and removes
// its parent directory too if it becomes empty.
func (o *Orchestrator) clean() error {
	root := filepath.Join(o.resolver.Root(fsroot.KindProjectSrcFs), strings.TrimPrefix(o.cfg.AutoDistDir, "src/"))
	if err := os.RemoveAll(root); err != nil {
		return err
	}
	parent := filepath.Dir(root)
	entries, err := os.ReadDir(parent)
	if err == nil && len(entries) == 0 {
		_ = os.Remove(parent)
	}
	return nil
}

func (o *Orchestrator) buildCatalog() ([]CatalogEntry, error) {
	w := walker.New(api.WalkRoot{
		Path: o.resolver.Root(fsroot.KindProjectSrcFs),
		Opts: api.WalkOptions{IncludeFiles: true, IncludeDirs: false, Canonicalize: true},
	})
	encounters, err := w.Walk()
	if err != nil {
		return nil, err
	}

	var catalog []CatalogEntry
	for _, we := range encounters {
		content, err := os.ReadFile(we.AbsPath())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", we.AbsPath(), err)
		}

		webPath := o.resolver.WebPath(we.Entry.Path)
		cat, err := annotate.BuildCatalog(we, content, o.cfg, webPath)
		if err != nil {
			return nil, err
		}
		for _, e := range cat.Errors {
			_, _ = o.registry.Merge(api.LintFinding{
				Rule: "annotation-validation", Code: "INVALID_GROUP",
				Content: we.Entry.Path, Severity: api.SeverityError, Message: e.Error(),
			})
		}

		catalog = append(catalog, CatalogEntry{Encounter: we, Resource: cat.Resource, Route: cat.Route, Items: cat.Items, Content: content})
	}
	return catalog, nil
}

func (o *Orchestrator) discoverFoundries(catalog []CatalogEntry) ([]api.FoundryRecord, error) {
	var records []api.FoundryRecord
	for _, entry := range catalog {
		if entry.Resource.Nature != api.NatureFoundry {
			continue
		}
		info, err := os.Stat(entry.Encounter.AbsPath())
		if err != nil {
			continue
		}
		if !foundry.IsExecutable(entry.Encounter.AbsPath(), info) {
			continue
		}
		pfn := foundry.ParseFileName(filepath.Dir(entry.Encounter.AbsPath()), filepath.Base(entry.Encounter.AbsPath()))
		records = append(records, api.FoundryRecord{WE: entry.Encounter, Ann: entry.Resource, PFN: pfn})
	}
	return records, nil
}

func (o *Orchestrator) envContractFor(opts RunOpts) func(api.FoundryRecord) (foundry.EnvContract, error) {
	return func(r api.FoundryRecord) (foundry.EnvContract, error) {
		return foundry.EnvContract{
			ProjectHome:      o.resolver.Root(fsroot.KindProjectFs),
			ProjectID:        opts.ProjectID,
			ProjectSrcHome:   o.resolver.Root(fsroot.KindProjectSrcFs),
			ProjectSprydHome: filepath.Join(o.resolver.Root(fsroot.KindProjectFs), o.cfg.PolicyDistDir),
			ProjectSprydAuto: filepath.Join(o.resolver.Root(fsroot.KindProjectSrcFs), strings.TrimPrefix(o.cfg.AutoDistDir, "src/")),
			SourceJSON:       r,
			AutoMaterialize:  r.PFN.Auto,
			MaterializeBase:  r.PFN.Basename,
			MaterializePath:  r.PFN.Path,
			ContextJSON:      map[string]any{"projectId": opts.ProjectID},
		}, nil
	}
}

// applyDirectives runs the default "#include ... #includeEnd" directive
// over every catalog entry's content, rewriting the source file in place
// (validated and formatted first) whenever the stream changes it, and
// refreshing the entry's in-memory Content so later steps (deploy-SQL
// emission) see the rewritten bytes.
func (o *Orchestrator) applyDirectives(catalog []CatalogEntry) error {
	for i := range catalog {
		entry := &catalog[i]
		candidates := directive.IncludeCandidates("--", filepath.Dir(entry.Encounter.AbsPath()))

		var out bytes.Buffer
		onError := func(err error, ctx directive.ErrorContext) string {
			_, _ = o.registry.Merge(api.LintFinding{
				Rule: "directive", Code: strings.ToUpper(ctx.Phase),
				Content: entry.Encounter.Entry.Path, Severity: api.SeverityWarn, Message: err.Error(),
			})
			return directive.ActionContinue
		}

		if _, err := directive.Run(bytes.NewReader(entry.Content), &out, directive.Options{
			IsCandidate: candidates,
			OnError:     onError,
		}); err != nil {
			return fmt.Errorf("directive run %s: %w", entry.Encounter.Entry.Path, err)
		}

		rewritten := out.Bytes()
		if bytes.Equal(rewritten, entry.Content) {
			continue
		}

		if err := directive.Validate(rewritten, entry.Encounter.AbsPath()); err != nil {
			astErrs := directive.ASTErrors(rewritten, entry.Encounter.AbsPath())
			if len(astErrs) == 0 {
				_, _ = o.registry.Merge(api.LintFinding{
					Rule: "directive", Code: "INVALID_REWRITE",
					Content: entry.Encounter.Entry.Path, Severity: api.SeverityError, Message: err.Error(),
				})
			}
			for _, astErr := range astErrs {
				_, _ = o.registry.Merge(api.LintFinding{
					Rule: "directive", Code: "INVALID_REWRITE",
					Content: entry.Encounter.Entry.Path, Severity: api.SeverityError, Message: astErr.Error(),
					Range: &api.LintRange{Line: int(astErr.Line), Col: int(astErr.Column)},
				})
			}
			continue
		}
		formatted := directive.FormatBuffer(rewritten, entry.Encounter.AbsPath())

		if err := atomicWriteFile(entry.Encounter.AbsPath(), formatted); err != nil {
			return fmt.Errorf("write %s: %w", entry.Encounter.Entry.Path, err)
		}
		entry.Content = formatted
	}
	return nil
}

// atomicWriteFile writes content to path via a temp-file-then-rename in
// the same directory, mirroring the store's write discipline for files
// that live outside the artifact root.
func atomicWriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spryctl-directive-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (o *Orchestrator) materialize(results []foundry.Result, records []api.FoundryRecord) {
	for _, res := range results {
		if res.ExitErr != nil {
			_, _ = o.registry.Merge(api.LintFinding{
				Rule: "foundry-exec", Code: "NONZERO_EXIT",
				Content: res.Record.WE.Entry.Path, Severity: api.SeverityError, Message: res.ExitErr.Error(),
			})
			continue
		}
		if err := foundry.Materialize(res, res.Record.PFN); err != nil {
			_, _ = o.registry.Merge(api.LintFinding{
				Rule: "foundry-materialize", Code: "WRITE_FAILED",
				Content: res.Record.WE.Entry.Path, Severity: api.SeverityError, Message: err.Error(),
			})
		}
	}
}

// resourceAnnotationView is the persisted entry/<webPath>.auto.json shape:
// the resource annotation plus the raw annotation items it was built from,
// omitting only the filesystem-absolute AbsFsPath.
type resourceAnnotationView struct {
	Nature              api.ResourceNature   `json:"nature"`
	RelFsPath           string               `json:"relFsPath"`
	WebPath             string               `json:"webPath"`
	IsSystemGenerated   bool                 `json:"isSystemGenerated"`
	SQLImpact           api.SQLImpact        `json:"sqlImpact"`
	RunBeforeAnnCatalog bool                 `json:"runBeforeAnnCatalog"`
	RunAfterAnnCatalog  bool                 `json:"runAfterAnnCatalog"`
	DependsOn           api.FoundryDependsOn `json:"dependsOn"`
	IsCleanable         bool                 `json:"isCleanable"`
	Source              []api.AnnotationItem `json:"source"`
}

// routeAnnotationView is the persisted route/<path>.auto.json shape: the
// route annotation plus the raw annotation items it was built from.
type routeAnnotationView struct {
	api.RouteAnnotation
	Source []api.AnnotationItem `json:"source"`
}

// dropInAnnotations writes entry/<webPath>.auto.json and
// route/<path>.auto.json artifacts, then synthesizes and writes the route
// forest, edges list, and per-path breadcrumbs.
func (o *Orchestrator) dropInAnnotations(catalog []CatalogEntry) (*pathtree.Forest, error) {
	var routePayloads []any
	routeByPath := make(map[string]api.RouteAnnotation)

	for _, entry := range catalog {
		webPath := o.resolver.WebPath(entry.Encounter.Entry.Path)

		entryView := resourceAnnotationView{
			Nature:              entry.Resource.Nature,
			RelFsPath:           entry.Resource.RelFsPath,
			WebPath:             entry.Resource.WebPath,
			IsSystemGenerated:   entry.Resource.IsSystemGenerated,
			SQLImpact:           entry.Resource.SQLImpact,
			RunBeforeAnnCatalog: entry.Resource.RunBeforeAnnCatalog,
			RunAfterAnnCatalog:  entry.Resource.RunAfterAnnCatalog,
			DependsOn:           entry.Resource.DependsOn,
			IsCleanable:         entry.Resource.IsCleanable,
			Source:              entry.Items,
		}
		if err := o.store.WriteJSON(filepath.Join("entry", webPath+".auto.json"), entryView, artifact.JSONOptions{Indent: true}); err != nil {
			return nil, err
		}

		if entry.Route != nil {
			routeView := routeAnnotationView{RouteAnnotation: *entry.Route, Source: entry.Items}
			if err := o.store.WriteJSON(filepath.Join("route", entry.Route.Path+".auto.json"), routeView, artifact.JSONOptions{Indent: true}); err != nil {
				return nil, err
			}
			routePayloads = append(routePayloads, entry.Route)
			routeByPath[entry.Route.Path] = *entry.Route
		}
	}

	forest := pathtree.Build(routePayloads, func(p any) string { return p.(*api.RouteAnnotation).Path }, pathtree.DefaultOptions())

	forestJSON, err := forest.JSON()
	if err != nil {
		return nil, err
	}
	if err := o.store.WriteBytes("route/forest.auto.json", forestJSON); err != nil {
		return nil, err
	}

	edgesJSON, err := marshalEdges(forest.Edges())
	if err != nil {
		return nil, err
	}
	if err := o.store.WriteBytes("route/edges.auto.json", edgesJSON); err != nil {
		return nil, err
	}

	for _, payload := range routePayloads {
		route := payload.(*api.RouteAnnotation)
		ancestry := forest.Ancestry(payload)
		if err := o.store.WriteJSON(filepath.Join("breadcrumbs", route.Path+".auto.json"), ancestry, artifact.JSONOptions{Indent: true}); err != nil {
			return nil, err
		}
	}

	return forest, nil
}

func marshalEdges(edges []pathtree.Edge) ([]byte, error) {
	type pair [2]string
	out := make([]pair, len(edges))
	for i, e := range edges {
		out[i] = pair{e.Parent, e.Child}
	}
	return json.MarshalIndent(out, "", "  ")
}

func (o *Orchestrator) writeReport(report *Report) error {
	var b strings.Builder
	b.WriteString("# spryctl build report\n\n")

	b.WriteString("## SQLPage-file candidates\n\n")
	var candidates []string
	for _, entry := range report.Catalog {
		if entry.Resource.Nature == api.NatureSQL || strings.HasSuffix(entry.Encounter.Entry.Path, ".sql") {
			candidates = append(candidates, entry.Resource.WebPath)
		}
	}
	sort.Strings(candidates)
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString("\n## Routes\n\n```\n")
	if report.Forest != nil {
		b.WriteString(report.Forest.ASCII())
	}
	b.WriteString("```\n")

	b.WriteString("\n## Lint findings\n\n")
	for _, f := range report.Findings {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Severity, f.Rule, f.Message)
	}

	reportDir := filepath.Join(o.resolver.Root(fsroot.KindProjectFs), o.cfg.PolicyDistDir)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(reportDir, "orchestrated.auto.md"), []byte(b.String()), 0o644)
}
