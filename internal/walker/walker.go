// Package walker is the filesystem walker/deduplicator: it yields
// canonicalized file/dir encounters from one or more roots in a
// deterministic, depth-first, name-sorted order, deduplicating across
// roots by the realized path of each entry.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/spryctl/spryctl/api"
)

// IoError reports that a root could not be read.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("walker: io error at %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// Walker yields encounters from one or more (root, options) pairs.
type Walker struct {
	roots []api.WalkRoot
}

// New constructs a Walker over the given roots. Each root is walked in the
// order given; a root's options apply only to entries found under it.
func New(roots ...api.WalkRoot) *Walker {
	return &Walker{roots: roots}
}

// seenTracker deduplicates realized paths across roots using a roaring
// bitmap of interned path IDs, avoiding an ever-growing string set for
// large trees.
type seenTracker struct {
	ids  map[string]uint32
	next uint32
	bm   *roaring.Bitmap
}

func newSeenTracker() *seenTracker {
	return &seenTracker{ids: make(map[string]uint32), bm: roaring.New()}
}

// markIfNew returns true the first time realPath is seen.
func (s *seenTracker) markIfNew(realPath string) bool {
	id, ok := s.ids[realPath]
	if !ok {
		id = s.next
		s.next++
		s.ids[realPath] = id
	}
	if s.bm.Contains(id) {
		return false
	}
	s.bm.Add(id)
	return true
}

// Walk traverses every configured root and returns the deduplicated,
// deterministically ordered encounter list. It performs a fresh traversal
// on every call — nothing is cached.
func (w *Walker) Walk() ([]api.WalkEncounter, error) {
	seen := newSeenTracker()
	var out []api.WalkEncounter

	for _, root := range w.roots {
		fsys := osfs.New(root.Path)
		if _, err := fsys.Stat("."); err != nil {
			return nil, &IoError{Path: root.Path, Err: err}
		}

		entries, err := walkRoot(fsys, root, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	return out, nil
}

func walkRoot(fsys billy.Filesystem, root api.WalkRoot, seen *seenTracker) ([]api.WalkEncounter, error) {
	var out []api.WalkEncounter
	if err := walkDir(fsys, root, "", seen, &out); err != nil {
		return nil, &IoError{Path: root.Path, Err: err}
	}
	return out, nil
}

func walkDir(fsys billy.Filesystem, root api.WalkRoot, relDir string, seen *seenTracker, out *[]api.WalkEncounter) error {
	infos, err := fsys.ReadDir(dirPath(relDir))
	if err != nil {
		return err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	for _, info := range infos {
		relPath := filepath.ToSlash(filepath.Join(relDir, info.Name()))
		isSymlink := info.Mode()&os.ModeSymlink != 0

		if isSymlink && !root.Opts.FollowSymlinks && !root.Opts.IncludeSymlinks {
			continue
		}

		absPath := filepath.Join(root.Path, relPath)
		realPath := absPath
		if root.Opts.Canonicalize {
			if r, err := filepath.EvalSymlinks(absPath); err == nil {
				realPath = r
			} else if isSymlink {
				// Dangling symlink: skipped without error.
				continue
			}
		}

		switch {
		case info.IsDir():
			if root.Opts.IncludeDirs && seen.markIfNew(realPath) {
				*out = append(*out, api.WalkEncounter{
					Origin: root,
					Entry: api.WalkEntry{
						Path: relPath, IsFile: false, IsSymlink: isSymlink, Mode: uint32(info.Mode()),
					},
				})
			}
			if !isSymlink || root.Opts.FollowSymlinks {
				if err := walkDir(fsys, root, relPath, seen, out); err != nil {
					return err
				}
			}
		default:
			if !extMatches(root.Opts.Extensions, relPath) {
				continue
			}
			if root.Opts.IncludeFiles && seen.markIfNew(realPath) {
				*out = append(*out, api.WalkEncounter{
					Origin: root,
					Entry: api.WalkEntry{
						Path: relPath, IsFile: true, IsSymlink: isSymlink, Mode: uint32(info.Mode()),
					},
				})
			}
		}
	}
	return nil
}

func extMatches(exts []string, relPath string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(relPath)
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func dirPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
