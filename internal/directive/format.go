package directive

import (
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"mvdan.cc/gofumpt/format"
)

// FormatBuffer formats a directive-rewritten buffer in memory, dispatched
// by file extension: Go files via gofumpt, HCL/Terraform files via
// hclwrite.Format. Unknown extensions, and buffers gofumpt rejects as
// unparseable, are returned unchanged.
func FormatBuffer(content []byte, filePath string) []byte {
	lower := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lower, ".go"):
		formatted, err := format.Source(content, format.Options{})
		if err != nil {
			return content
		}
		return formatted
	case strings.HasSuffix(lower, ".tf"), strings.HasSuffix(lower, ".hcl"):
		return hclwrite.Format(content)
	default:
		return content
	}
}
