package foundry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spryctl/spryctl/api"
)

// CleanResult reports how one foundry's outputs were cleaned.
type CleanResult struct {
	Record  api.FoundryRecord
	Removed string // non-empty when an auto-materialized file was deleted
	Invoked bool   // true when DESTROY_CLEAN was run instead
	Err     error
}

// Clean removes auto-materialized outputs for cleanable foundries
// (isCleanable && auto), or invokes the foundry once more with
// FOUNDRY_WORKFLOW_STEP=DESTROY_CLEAN (isCleanable && !auto), discarding
// its output.
func Clean(ctx context.Context, records []api.FoundryRecord, opts RunOpts) []CleanResult {
	var out []CleanResult
	for _, rec := range records {
		if !rec.Ann.IsCleanable {
			continue
		}
		if rec.PFN.Auto {
			err := os.Remove(rec.PFN.Path)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				out = append(out, CleanResult{Record: rec, Err: fmt.Errorf("foundry: clean %s: %w", rec.PFN.Path, err)})
				continue
			}
			out = append(out, CleanResult{Record: rec, Removed: rec.PFN.Path})
			continue
		}
		res := invoke(ctx, rec, StepDestroyClean, opts.Contract)
		out = append(out, CleanResult{Record: rec, Invoked: true, Err: res.ExitErr})
	}
	return out
}
