// Package foundry is the foundry executor: it discovers executable
// annotated files, classifies their auto-materialization basename, and
// invokes them under a fixed environment contract, capturing stdout for
// materialization.
package foundry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/spryctl/spryctl/api"
)

// Step is one workflow phase a foundry may run under.
type Step string

const (
	StepBeforeAnnCatalog Step = "BEFORE_ANN_CATALOG"
	StepAfterAnnCatalog  Step = "AFTER_ANN_CATALOG"
	StepDestroyClean     Step = "DESTROY_CLEAN"
)

// ParseFileName classifies basename by splitting on ".": fewer than two
// dots disables auto-materialization; otherwise the final segment
// is the runner extension, the prior segment is the nature, and everything
// before that is the base name.
func ParseFileName(dir, basename string) api.ParsedFileName {
	parts := strings.Split(basename, ".")
	if len(parts) < 3 {
		return api.ParsedFileName{Auto: false, FileName: basename, Extn: filepath.Ext(basename)}
	}

	extn := parts[len(parts)-1]
	nature := parts[len(parts)-2]
	base := strings.Join(parts[:len(parts)-2], ".")

	return api.ParsedFileName{
		Auto:      true,
		Basename:  base + ".auto." + nature,
		Path:      filepath.Join(dir, base+".auto."+nature),
		Base:      base,
		NatureSeg: nature,
		ExtnSeg:   extn,
	}
}

// IsExecutable reports whether info's mode marks the file executable: any
// POSIX execute bit, or (on non-POSIX filesystems where those bits are
// meaningless) a recognized executable extension.
func IsExecutable(path string, info os.FileInfo) bool {
	if info.Mode()&0o111 != 0 {
		return true
	}
	if runtime.GOOS != "windows" {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".cmd", ".bat", ".com", ".ps1":
		return true
	default:
		return false
	}
}

// EnvContract is the full set of values supplied to a foundry's child
// process environment.
type EnvContract struct {
	ProjectHome        string
	ProjectID          string
	ProjectSrcHome     string
	ProjectSprydHome   string
	ProjectSprydAuto   string
	SourceJSON         any
	AutoMaterialize    bool
	MaterializeBase    string
	MaterializePath    string
	WorkflowStep       Step
	ContextJSON        any
	TargetSQLiteDB     string
}

// Environ renders an EnvContract into a child process's environment,
// appended to the current process's environment.
func (c EnvContract) Environ() ([]string, error) {
	sourceJSON, err := json.Marshal(c.SourceJSON)
	if err != nil {
		return nil, fmt.Errorf("foundry: marshal FOUNDRY_SOURCE_JSON: %w", err)
	}
	contextJSON, err := json.Marshal(c.ContextJSON)
	if err != nil {
		return nil, fmt.Errorf("foundry: marshal FOUNDRY_CONTEXT_JSON: %w", err)
	}

	auto := "FALSE"
	if c.AutoMaterialize {
		auto = "TRUE"
	}

	env := append(os.Environ(),
		"FOUNDRY_PROJECT_HOME="+c.ProjectHome,
		"FOUNDRY_PROJECT_ID="+c.ProjectID,
		"FOUNDRY_PROJECT_SRC_HOME="+c.ProjectSrcHome,
		"FOUNDRY_PROJECT_SPRYD_HOME="+c.ProjectSprydHome,
		"FOUNDRY_PROJECT_SPRYD_AUTO="+c.ProjectSprydAuto,
		"FOUNDRY_SOURCE_JSON="+string(sourceJSON),
		"FOUNDRY_AUTO_MATERIALIZE="+auto,
		"FOUNDRY_MATERIALIZE_BASENAME="+c.MaterializeBase,
		"FOUNDRY_MATERIALIZE_PATH="+c.MaterializePath,
		"FOUNDRY_WORKFLOW_STEP="+string(c.WorkflowStep),
		"FOUNDRY_CONTEXT_JSON="+string(contextJSON),
	)
	if c.TargetSQLiteDB != "" {
		env = append(env, "FOUNDRY_TARGET_SQLITEDB="+c.TargetSQLiteDB)
	}
	return env, nil
}

// Result is the outcome of invoking one foundry.
type Result struct {
	Record         api.FoundryRecord
	Stdout         []byte
	Stderr         []byte
	ExitErr        error
	Materialized   bool
	MaterializePath string
}

// RunOpts configures one Run call.
type RunOpts struct {
	Concurrency int // 0 (default) = 1 (strictly sequential); negative = unbounded
	Contract    func(r api.FoundryRecord) (EnvContract, error)
}

// Run invokes every record in records whose Step matches step, in
// discovery order, capped at opts.Concurrency concurrent children. A
// non-zero exit or spawn failure is captured per-foundry (never aborts the
// group), since recovery is handled by the caller via the lint registry.
func Run(ctx context.Context, records []api.FoundryRecord, step Step, opts RunOpts) ([]Result, error) {
	matching := filterByStep(records, step)

	limit := opts.Concurrency
	if limit == 0 {
		limit = 1
	}

	results := make([]Result, len(matching))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rec := range matching {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = invoke(gctx, rec, step, opts.Contract)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func filterByStep(records []api.FoundryRecord, step Step) []api.FoundryRecord {
	var out []api.FoundryRecord
	for _, r := range records {
		switch step {
		case StepBeforeAnnCatalog:
			if r.Ann.RunBeforeAnnCatalog {
				out = append(out, r)
			}
		case StepAfterAnnCatalog:
			if r.Ann.RunAfterAnnCatalog {
				out = append(out, r)
			}
		case StepDestroyClean:
			if r.Ann.IsCleanable {
				out = append(out, r)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WE.AbsPath() < out[j].WE.AbsPath()
	})
	return out
}

func invoke(ctx context.Context, rec api.FoundryRecord, step Step, buildContract func(api.FoundryRecord) (EnvContract, error)) Result {
	res := Result{Record: rec}

	if buildContract == nil {
		res.ExitErr = fmt.Errorf("foundry: no env contract builder configured")
		return res
	}
	contract, err := buildContract(rec)
	if err != nil {
		res.ExitErr = fmt.Errorf("foundry: build env contract: %w", err)
		return res
	}
	contract.WorkflowStep = step

	env, err := contract.Environ()
	if err != nil {
		res.ExitErr = err
		return res
	}

	cmd := exec.CommandContext(ctx, rec.WE.AbsPath())
	cmd.Env = env
	cmd.Dir = filepath.Dir(rec.WE.AbsPath())

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res.ExitErr = cmd.Run()
	res.Stdout = []byte(stdout.String())
	res.Stderr = []byte(stderr.String())
	return res
}
