// Package fsroot is the path resolver: it maps between a project's
// module home, its src/ subtree, web paths, and a shared library
// symlinked under src/, using a root node over a billy filesystem.
package fsroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/spryctl/spryctl/api"
)

// ErrInvalidRoot is returned when the configured project home does not
// exist or is not a directory.
var ErrInvalidRoot = errors.New("fsroot: invalid root")

// Kind identifies one of the four path kinds the resolver exposes.
type Kind int

const (
	KindProjectFs Kind = iota
	KindProjectSrcFs
	KindWebPaths
	KindSharedLibrary
)

// Resolver converts between the project's four path kinds.
type Resolver struct {
	home    string // absolute, canonical
	srcRoot string // absolute, home + "/src"
	cfg     *api.ProjectConfig

	projectFS billy.Filesystem
	srcFS     billy.Filesystem
}

// New constructs a Resolver rooted at cfg.ProjectHome.
func New(cfg *api.ProjectConfig) (*Resolver, error) {
	info, err := os.Stat(cfg.ProjectHome)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, cfg.ProjectHome)
	}

	home, err := filepath.Abs(cfg.ProjectHome)
	if err != nil {
		return nil, fmt.Errorf("fsroot: resolve home: %w", err)
	}
	if real, err := filepath.EvalSymlinks(home); err == nil {
		home = real
	}

	srcRoot := filepath.Join(home, "src")

	return &Resolver{
		home:      home,
		srcRoot:   srcRoot,
		cfg:       cfg,
		projectFS: osfs.New(home),
		srcFS:     osfs.New(srcRoot),
	}, nil
}

// Root returns the absolute root path for the given path kind.
func (r *Resolver) Root(kind Kind) string {
	switch kind {
	case KindProjectSrcFs:
		return r.srcRoot
	case KindSharedLibrary:
		return filepath.Join(r.srcRoot, r.cfg.SharedLibraryName)
	default:
		return r.home
	}
}

// FS returns the billy.Filesystem for projectFs or projectSrcFs.
func (r *Resolver) FS(kind Kind) billy.Filesystem {
	if kind == KindProjectSrcFs {
		return r.srcFS
	}
	return r.projectFS
}

// WebPath strips a leading "src/" (and any leading separator) from rel,
// so that on-disk source paths become the web paths SQLPage serves.
func (r *Resolver) WebPath(relFsPath string) string {
	p := filepath.ToSlash(relFsPath)
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "src/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// SharedLibraryTarget resolves the src/<symlinkName> symlink to its
// physical, canonical path. Returns an error if the symlink is absent or
// dangling.
func (r *Resolver) SharedLibraryTarget() (string, error) {
	link := r.Root(KindSharedLibrary)
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		return "", fmt.Errorf("fsroot: resolve shared library symlink %s: %w", link, err)
	}
	return target, nil
}

// Rel converts an absolute path into the project's canonical relative form.
// If the path lies under the shared-library's resolved physical target, it
// is rewritten as "src/<symlinkName>/<rest>" so the identifier is stable
// across machines where the library lives at different absolute locations.
// Otherwise it is expressed relative to the project home.
func (r *Resolver) Rel(absPath string) (string, error) {
	abs, err := filepath.Abs(absPath)
	if err != nil {
		return "", fmt.Errorf("fsroot: abs %s: %w", absPath, err)
	}

	if target, err := r.SharedLibraryTarget(); err == nil {
		if realAbs, evalErr := filepath.EvalSymlinks(abs); evalErr == nil {
			if rest, ok := cutPrefix(realAbs, target); ok {
				name := r.cfg.SharedLibraryName
				if rest == "" {
					return filepath.ToSlash(filepath.Join("src", name)), nil
				}
				return filepath.ToSlash(filepath.Join("src", name, rest)), nil
			}
		}
	}

	rel, err := filepath.Rel(r.home, abs)
	if err != nil {
		return "", fmt.Errorf("fsroot: rel %s: %w", absPath, err)
	}
	return filepath.ToSlash(rel), nil
}

// cutPrefix reports whether path is target or a descendant of target, and
// returns the remainder (without a leading separator).
func cutPrefix(path, target string) (string, bool) {
	if path == target {
		return "", true
	}
	prefix := target + string(filepath.Separator)
	if strings.HasPrefix(path, prefix) {
		return filepath.ToSlash(strings.TrimPrefix(path, prefix)), true
	}
	return "", false
}
