package annotate

import (
	"fmt"
	"path/filepath"

	"github.com/spryctl/spryctl/api"
)

// itemAdapter satisfies AnnotationItemLike for an api.AnnotationItem.
type itemAdapter struct{ it api.AnnotationItem }

func (a itemAdapter) GetKey() string { return a.it.Key }
func (a itemAdapter) GetValue() any  { return a.it.Value }

// FileCatalog is the per-file annotation catalog: the resource annotation
// (always present, synthesized when absent but a route exists) and the
// optional route annotation.
type FileCatalog struct {
	WE       api.WalkEncounter
	Resource api.ResourceAnnotation
	Route    *api.RouteAnnotation
	Items    []api.AnnotationItem
	Errors   []error
}

// BuildCatalog extracts and validates the resource/route annotation groups
// for one walked file. When a route annotation exists but no resource
// annotation was found, a system-generated `page` resource is synthesized
// so the file still gets a path-tree node.
func BuildCatalog(we api.WalkEncounter, content []byte, cfg *api.ProjectConfig, webPath string) (FileCatalog, error) {
	ext := filepath.Ext(we.Entry.Path)
	lang, _ := DetectLanguageFromExt(ext)

	result, err := Extract(content, lang, Options{Tags: TagOptions{ValueMode: "json"}})
	if err != nil {
		return FileCatalog{}, fmt.Errorf("annotate: extract %s: %w", we.Entry.Path, err)
	}

	items := make([]AnnotationItemLike, len(result.Items))
	for i, it := range result.Items {
		items[i] = itemAdapter{it}
	}

	resourcePrefix := cfg.TagPrefixes["resource"]
	routePrefix := cfg.TagPrefixes["route"]

	groups := GroupItems(items, []Schema{
		resourceSchema(resourcePrefix),
		routeSchema(routePrefix),
	})

	cat := FileCatalog{WE: we, Items: result.Items}

	resGroup := groups[resourcePrefix]
	routeGroup := groups[routePrefix]

	switch {
	case resGroup != nil && resGroup.State != StateAbsent:
		cat.Resource = resourceFromGroup(resGroup, we, webPath)
		if resGroup.State == StateInvalid {
			for _, e := range resGroup.Errors {
				cat.Errors = append(cat.Errors, e)
			}
		}
	case routeGroup != nil && routeGroup.State != StateAbsent:
		// A route annotation with no resource annotation still needs a
		// page in the tree: synthesize one so navigable files without an
		// explicit @spry.nature still participate in routing.
		cat.Resource = api.ResourceAnnotation{
			Nature:            api.NaturePage,
			AbsFsPath:         we.AbsPath(),
			RelFsPath:         we.Entry.Path,
			WebPath:           webPath,
			IsSystemGenerated: true,
		}
	default:
		cat.Resource = api.ResourceAnnotation{
			Nature:    api.NatureResource,
			AbsFsPath: we.AbsPath(),
			RelFsPath: we.Entry.Path,
			WebPath:   webPath,
		}
	}

	if routeGroup != nil && routeGroup.State == StateValid {
		route := routeFromGroup(routeGroup, webPath)
		cat.Route = &route
	} else if routeGroup != nil && routeGroup.State == StateInvalid {
		for _, e := range routeGroup.Errors {
			cat.Errors = append(cat.Errors, e)
		}
	}

	return cat, nil
}

func resourceSchema(prefix string) Schema {
	validNature := func(v any) error {
		s, _ := v.(string)
		switch api.ResourceNature(s) {
		case api.NatureAction, api.NatureAPI, api.NaturePage, api.NaturePartial,
			api.NatureSQL, api.NatureResource, api.NatureFoundry:
			return nil
		default:
			return fmt.Errorf("unrecognized nature %q", s)
		}
	}
	return Schema{
		Prefix: prefix,
		Rules: []Rule{
			{Field: "nature", Required: true, Validate: validNature},
			{Field: "sql_impact", Default: string(api.ImpactUnknown)},
			{Field: "depends_on", Default: string(api.DependsNone)},
			{Field: "run_before_ann_catalog", Default: false},
			{Field: "run_after_ann_catalog", Default: false},
			{Field: "is_cleanable", Default: true},
		},
	}
}

func routeSchema(prefix string) Schema {
	return Schema{
		Prefix: prefix,
		Rules: []Rule{
			{Field: "path", Required: true},
			{Field: "caption", Required: true},
			{Field: "sibling_order"},
			{Field: "title"},
			{Field: "abbreviated_caption"},
			{Field: "description"},
			{Field: "elaboration"},
			{Field: "children"},
		},
	}
}

func resourceFromGroup(g *Group, we api.WalkEncounter, webPath string) api.ResourceAnnotation {
	ann := api.ResourceAnnotation{
		AbsFsPath: we.AbsPath(),
		RelFsPath: we.Entry.Path,
		WebPath:   webPath,
	}
	if v, ok := g.Fields["nature"].(string); ok {
		ann.Nature = api.ResourceNature(v)
	}
	if v, ok := g.Fields["sql_impact"].(string); ok {
		ann.SQLImpact = api.SQLImpact(v)
	}
	if v, ok := g.Fields["depends_on"].(string); ok {
		ann.DependsOn = api.FoundryDependsOn(v)
	}
	if v, ok := g.Fields["run_before_ann_catalog"].(bool); ok {
		ann.RunBeforeAnnCatalog = v
	}
	if v, ok := g.Fields["run_after_ann_catalog"].(bool); ok {
		ann.RunAfterAnnCatalog = v
	}
	if v, ok := g.Fields["is_cleanable"].(bool); ok {
		ann.IsCleanable = v
	}
	return ann
}

func routeFromGroup(g *Group, webPath string) api.RouteAnnotation {
	route := api.RouteAnnotation{URL: webPath}
	if v, ok := g.Fields["path"].(string); ok {
		route.Path = v
	}
	if v, ok := g.Fields["caption"].(string); ok {
		route.Caption = v
	}
	if v, ok := g.Fields["title"].(string); ok {
		route.Title = v
	}
	if v, ok := g.Fields["abbreviated_caption"].(string); ok {
		route.AbbreviatedCaption = v
	}
	if v, ok := g.Fields["description"].(string); ok {
		route.Description = v
	}
	if n, ok := g.Fields["sibling_order"].(float64); ok {
		order := int(n)
		route.SiblingOrder = &order
	}

	route.PathBasename = filepath.Base(route.Path)
	route.PathDirname = filepath.Dir(route.Path)
	route.PathExtnTerminal = filepath.Ext(route.Path)
	ext := route.PathExtnTerminal
	route.PathBasenameNoExtn = route.PathBasename[:len(route.PathBasename)-len(ext)]
	route.PathExtns = ext

	if children, ok := g.Fields["children"].([]any); ok {
		for _, c := range children {
			if m, ok := c.(map[string]any); ok {
				if p, ok := m["path"].(string); ok {
					route.Children = append(route.Children, api.RouteChildRef{Path: p})
				}
			}
		}
	}

	return route
}
