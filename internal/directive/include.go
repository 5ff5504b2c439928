package directive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IncludeCandidates returns a line-comment block directive
// "<marker> #include <name> --file <relpath>" ... "<marker> #includeEnd
// <name>", whose rendered interior is the referenced file's content
// resolved against baseDir. An end line naming a different block is
// rejected — the detector simply fails to recognize a BlockEnd written
// for a different name, leaving the block unterminated.
func IncludeCandidates(marker, baseDir string) IsCandidateFunc {
	parser := NewLineCommentParser(marker, "#")

	return func(line string, lineNo int, payload any) (Candidate, bool) {
		token, remainder, _, ok := parser.Parse(line)
		if !ok || token != "include" {
			return Candidate{}, false
		}

		args, err := Tokenize(remainder)
		if err != nil || len(args) == 0 {
			return Candidate{}, false
		}
		name := args[0]

		var relPath string
		for i := 1; i+1 < len(args); i++ {
			if args[i] == "--file" {
				relPath = args[i+1]
			}
		}
		if relPath == "" {
			return Candidate{}, false
		}

		return Candidate{
			BlockEnd: func(probe string) bool {
				endToken, endRemainder, _, endOk := parser.Parse(probe)
				if !endOk || endToken != "includeEnd" {
					return false
				}
				endArgs, err := Tokenize(endRemainder)
				return err == nil && len(endArgs) > 0 && endArgs[0] == name
			},
			Render: func(any) (string, error) {
				content, err := os.ReadFile(filepath.Join(baseDir, relPath))
				if err != nil {
					return "", fmt.Errorf("directive: include %q: %w", relPath, err)
				}
				return strings.TrimSuffix(string(content), "\n"), nil
			},
		}, true
	}
}
