package directive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	sqllang "github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ValidationError reports a syntax error a directive rewrite would
// introduce into a file, at the AST location tree-sitter flagged.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// Validate gates a directive-rewritten buffer before it is written back to
// disk: it rejects the rewrite if parsing filePath's language finds a
// syntax error anywhere in content. Files with no known tree-sitter grammar
// pass through unvalidated (nil) — the directive engine never blocks a
// rewrite it cannot parse.
func Validate(content []byte, filePath string) error {
	errs := ASTErrors(content, filePath)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return &first
}

// ASTErrors returns every ERROR/MISSING AST node a directive rewrite
// introduced into content, one per offending location, so the caller can
// merge a lint finding per location rather than a single opaque rejection.
// nil if the rewrite parses cleanly or filePath has no known grammar.
func ASTErrors(content []byte, filePath string) []ValidationError {
	lang := validateLanguageForPath(filePath)
	if lang == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree.RootNode() == nil {
		return []ValidationError{{FilePath: filePath, Message: "directive rewrite failed to parse"}}
	}

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	var errs []ValidationError
	collectErrors(root, filePath, &errs)
	if len(errs) == 0 {
		errs = append(errs, ValidationError{FilePath: filePath, Message: "directive rewrite's AST contains errors"})
	}
	return errs
}

func collectErrors(node *sitter.Node, filePath string, errs *[]ValidationError) {
	if node.IsError() || node.IsMissing() {
		*errs = append(*errs, ValidationError{
			FilePath: filePath,
			Line:     uint32(node.StartPoint().Row),
			Column:   uint32(node.StartPoint().Column),
			Message:  "syntax error in AST",
		})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, filePath, errs)
		}
	}
}

// validateLanguageForPath maps a file extension to a tree-sitter grammar
// for validation purposes. Kept separate from annotate's registry since
// this package has no dependency on it.
func validateLanguageForPath(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	case ".js":
		return javascript.GetLanguage()
	case ".ts", ".tsx":
		return typescript.GetLanguage()
	case ".sql":
		return sqllang.GetLanguage()
	default:
		return nil
	}
}
