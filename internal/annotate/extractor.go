// Package annotate implements the annotation extractor and the
// schema-grouped validator: it scans a source file's comments for
// `@dotted.key value` tags and `key: value` pairs, then groups/validates
// tag families by prefix into typed records.
package annotate

import (
	"context"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/oj"
	sitter "github.com/smacker/go-tree-sitter"
	"gopkg.in/yaml.v3"

	"github.com/spryctl/spryctl/api"
)

// TagOptions controls @tag recognition.
type TagOptions struct {
	Multi     bool   // not read by Extract, which emits every occurrence of a key; repeats are judged by Schema.Multi when grouping
	ValueMode string // "json" (default) or "raw"
}

// Options controls one extraction pass.
type Options struct {
	Tags TagOptions
	KV   bool // recognize "key: value" pairs
	YAML bool // recognize "---\n...\n---" front matter blocks
	JSON bool // recognize JSON object blobs
}

// Result is the output of one extraction pass.
type Result struct {
	Items []api.AnnotationItem
}

var tagPattern = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_.]*)([ \t]+[^\r\n]*)?`)
var kvPattern = regexp.MustCompile(`^[ \t]*([A-Za-z_][A-Za-z0-9_.]*)[ \t]*:[ \t]*(.+?)[ \t]*$`)

// commentSpan is one comment's text plus its starting source location.
type commentSpan struct {
	text      string
	startLine int // 1-based
	startCol  int // 1-based
}

// Extract scans content for comment-embedded annotations for the given
// source language. lang should come from DetectLanguageFromExt.
func Extract(content []byte, lang string, opts Options) (Result, error) {
	if opts.Tags.ValueMode == "" {
		opts.Tags.ValueMode = "json"
	}

	spans, err := commentSpans(content, lang)
	if err != nil {
		return Result{}, err
	}

	var items []api.AnnotationItem
	for _, span := range spans {
		items = append(items, extractTags(span, opts)...)
		if opts.KV {
			items = append(items, extractKV(span)...)
		}
		if opts.YAML {
			items = append(items, extractYAMLFrontMatter(span)...)
		}
		if opts.JSON {
			items = append(items, extractJSONBlob(span)...)
		}
	}

	return Result{Items: items}, nil
}

// commentSpans locates every comment in content. When the language has a
// registered tree-sitter grammar, comment nodes are found via the AST
// (robust to comment markers appearing inside string literals). Otherwise
// it falls back to a line-oriented scan using the language's line marker.
func commentSpans(content []byte, lang string) ([]commentSpan, error) {
	if tsLang, ok := languageForName(lang); ok {
		return sitterCommentSpans(content, tsLang)
	}
	_, marker := DetectLanguageFromExt("")
	if lang == "markdown" {
		marker = ""
	}
	return lineCommentSpans(content, marker), nil
}

func sitterCommentSpans(content []byte, lang *sitter.Language) ([]commentSpan, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}

	var spans []commentSpan
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if isCommentNodeType(n.Type()) {
			text := content[n.StartByte():n.EndByte()]
			spans = append(spans, commentSpan{
				text:      string(text),
				startLine: int(n.StartPoint().Row) + 1,
				startCol:  int(n.StartPoint().Column) + 1,
			})
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return spans, nil
}

// lineCommentSpans scans content line by line, collecting every line whose
// trimmed text begins with marker as a one-line comment span. Used for
// languages (or extensionless files) with no tree-sitter grammar.
func lineCommentSpans(content []byte, marker string) []commentSpan {
	if marker == "" {
		return nil
	}
	var spans []commentSpan
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, marker) {
			col := len(line) - len(trimmed) + 1
			spans = append(spans, commentSpan{text: line, startLine: i + 1, startCol: col})
		}
	}
	return spans
}

// extractTags finds every `@dotted.key value?` occurrence in span's text.
func extractTags(span commentSpan, opts Options) []api.AnnotationItem {
	var items []api.AnnotationItem
	matches := tagPattern.FindAllStringSubmatchIndex(span.text, -1)
	for _, m := range matches {
		key := span.text[m[2]:m[3]]
		var rawValue string
		if m[4] >= 0 {
			rawValue = strings.TrimSpace(span.text[m[4]:m[5]])
		}

		line, col := advance(span, m[0])

		var value any
		if rawValue != "" {
			if opts.Tags.ValueMode == "json" {
				if parsed, err := oj.ParseString(rawValue); err == nil {
					value = parsed
				} else {
					value = rawValue
				}
			} else {
				value = rawValue
			}
		}

		items = append(items, api.AnnotationItem{
			Kind:  api.KindTag,
			Key:   key,
			Value: value,
			Raw:   span.text[m[0]:m[1]],
			Loc:   api.Loc{Line: line, Col: col},
		})
	}
	return items
}

// extractKV finds `key: value` lines within span's text.
func extractKV(span commentSpan) []api.AnnotationItem {
	var items []api.AnnotationItem
	lines := strings.Split(span.text, "\n")
	offset := 0
	for _, line := range lines {
		if m := kvPattern.FindStringSubmatch(line); m != nil {
			lineNo, _ := advance(span, offset)
			var value any = m[2]
			if parsed, err := oj.ParseString(m[2]); err == nil {
				value = parsed
			}
			items = append(items, api.AnnotationItem{
				Kind:  api.KindKV,
				Key:   m[1],
				Value: value,
				Raw:   strings.TrimSpace(line),
				Loc:   api.Loc{Line: lineNo, Col: 1},
			})
		}
		offset += len(line) + 1
	}
	return items
}

// frontMatterPattern matches a "---\n ... \n---" block, capturing the body.
var frontMatterPattern = regexp.MustCompile(`(?s)^[-]{3}\s*\n(.*?)\n[-]{3}\s*$`)

func extractYAMLFrontMatter(span commentSpan) []api.AnnotationItem {
	body := strings.TrimSpace(stripCommentMarkers(span.text))
	m := frontMatterPattern.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &doc); err != nil {
		return nil
	}
	var items []api.AnnotationItem
	for k, v := range doc {
		items = append(items, api.AnnotationItem{
			Kind:  api.KindKV,
			Key:   k,
			Value: v,
			Raw:   span.text,
			Loc:   api.Loc{Line: span.startLine, Col: span.startCol},
		})
	}
	return items
}

func extractJSONBlob(span commentSpan) []api.AnnotationItem {
	body := strings.TrimSpace(stripCommentMarkers(span.text))
	if !strings.HasPrefix(body, "{") {
		return nil
	}
	parsed, err := oj.ParseString(body)
	if err != nil {
		return nil
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}
	var items []api.AnnotationItem
	for k, v := range obj {
		items = append(items, api.AnnotationItem{
			Kind:  api.KindKV,
			Key:   k,
			Value: v,
			Raw:   span.text,
			Loc:   api.Loc{Line: span.startLine, Col: span.startCol},
		})
	}
	return items
}

// stripCommentMarkers removes leading line-comment markers ("//", "--",
// "#") from every physical line of a comment's text, and "/*"/"*/" block
// delimiters, so KV/JSON/YAML scanning sees only the payload.
func stripCommentMarkers(text string) string {
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		t := strings.TrimLeft(line, " \t")
		for _, marker := range []string{"///", "//", "--", "#"} {
			if strings.HasPrefix(t, marker) {
				t = strings.TrimPrefix(t, marker)
				break
			}
		}
		lines[i] = strings.TrimPrefix(t, " ")
	}
	return strings.Join(lines, "\n")
}

// advance computes the 1-based (line, col) of byte offset idx within
// span's text, relative to span's own starting location.
func advance(span commentSpan, idx int) (line, col int) {
	prefix := span.text[:idx]
	nl := strings.Count(prefix, "\n")
	if nl == 0 {
		return span.startLine, span.startCol + idx
	}
	lastNL := strings.LastIndex(prefix, "\n")
	return span.startLine + nl, idx - lastNL
}
