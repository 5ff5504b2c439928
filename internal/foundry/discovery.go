package foundry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spryctl/spryctl/api"
	"github.com/spryctl/spryctl/internal/annotate"
)

// Discover filters walk encounters down to foundry records: executable
// files whose resource annotation's nature is "foundry". content is a
// lookup from a walk encounter's absolute path to its already-read bytes;
// an encounter missing from it is read from disk.
func Discover(encounters []api.WalkEncounter, cfg *api.ProjectConfig, webPathOf func(string) string, content map[string][]byte) ([]api.FoundryRecord, error) {
	var records []api.FoundryRecord

	for _, we := range encounters {
		if !we.Entry.IsFile {
			continue
		}
		abs := we.AbsPath()

		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if !IsExecutable(abs, info) {
			continue
		}

		body, ok := content[abs]
		if !ok {
			body, err = os.ReadFile(abs)
			if err != nil {
				return nil, fmt.Errorf("foundry: read %s: %w", abs, err)
			}
		}

		cat, err := annotate.BuildCatalog(we, body, cfg, webPathOf(we.Entry.Path))
		if err != nil {
			return nil, err
		}
		if cat.Resource.Nature != api.NatureFoundry {
			continue
		}

		pfn := ParseFileName(filepath.Dir(abs), filepath.Base(abs))
		records = append(records, api.FoundryRecord{WE: we, Ann: cat.Resource, PFN: pfn})
	}

	return records, nil
}
