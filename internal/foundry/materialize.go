package foundry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spryctl/spryctl/api"
)

// Materialize writes res.Stdout to its parsed auto-materialization path
// when the foundry exited cleanly and auto-materialization applies. The
// write is atomic: temp file in the same directory, then rename.
func Materialize(res Result, pfn api.ParsedFileName) error {
	if res.ExitErr != nil || !pfn.Auto {
		return nil
	}

	dir := filepath.Dir(pfn.Path)
	tmp, err := os.CreateTemp(dir, ".spryctl-foundry-*")
	if err != nil {
		return fmt.Errorf("foundry: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(res.Stdout); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("foundry: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("foundry: close temp: %w", err)
	}
	_ = os.Chmod(tmpName, 0o644)

	if err := os.Rename(tmpName, pfn.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("foundry: rename temp to %s: %w", pfn.Path, err)
	}
	return nil
}
