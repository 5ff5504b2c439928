package annotate

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// languageForName returns the tree-sitter grammar for a source language
// tag. ok is false for languages with no tree-sitter grammar in this
// module — the extractor falls back to a line-oriented comment scan for
// those.
func languageForName(lang string) (*sitter.Language, bool) {
	switch lang {
	case "go":
		return golang.GetLanguage(), true
	case "python":
		return python.GetLanguage(), true
	case "javascript":
		return javascript.GetLanguage(), true
	case "typescript", "tsx":
		return typescript.GetLanguage(), true
	case "sql":
		return sql.GetLanguage(), true
	case "hcl", "terraform":
		return hcl.GetLanguage(), true
	case "yaml":
		return yaml.GetLanguage(), true
	case "rust":
		return rust.GetLanguage(), true
	default:
		return nil, false
	}
}

// DetectLanguageFromExt maps a file extension to the language tag used
// throughout this package, and to the fallback line-comment marker used
// when no tree-sitter grammar applies.
func DetectLanguageFromExt(ext string) (lang string, lineMarker string) {
	switch ext {
	case ".go":
		return "go", "//"
	case ".py":
		return "python", "#"
	case ".js":
		return "javascript", "//"
	case ".ts", ".tsx":
		return "typescript", "//"
	case ".sql":
		return "sql", "--"
	case ".hcl", ".tf":
		return "hcl", "#"
	case ".yaml", ".yml":
		return "yaml", "#"
	case ".rs":
		return "rust", "//"
	case ".md":
		return "markdown", ""
	default:
		return "", "--"
	}
}

// isCommentNodeType reports whether a tree-sitter node type name denotes a
// comment in any of the grammars this package registers. Most grammars
// name it "comment"; a few split line/block forms.
func isCommentNodeType(t string) bool {
	switch t {
	case "comment", "line_comment", "block_comment":
		return true
	default:
		return false
	}
}
