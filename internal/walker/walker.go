// Package walker discovers indexable files under a repository root.
package walker

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSizeMB is used when a Walker is constructed with a
// non-positive ceiling.
const DefaultMaxFileSizeMB = 10

// Walker discovers files under a root directory, applying glob-based
// include/exclude filters and a size ceiling.
type Walker struct {
	include       []string
	exclude       []string
	maxFileSizeMB int
}

// New constructs a Walker. Glob patterns are validated immediately; an
// invalid pattern is a configuration error.
func New(include, exclude []string, maxFileSizeMB int) (*Walker, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	if maxFileSizeMB <= 0 {
		maxFileSizeMB = DefaultMaxFileSizeMB
	}

	return &Walker{
		include:       include,
		exclude:       exclude,
		maxFileSizeMB: maxFileSizeMB,
	}, nil
}

// Collect walks root depth-first, without following symlinks, and
// returns the absolute paths of admitted files. Per-entry errors
// (permission denied, broken symlinks) are logged and skipped; they
// never abort the walk.
func (w *Walker) Collect(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	var files []string
	w.walkDir(absRoot, absRoot, true, &files)
	return files, nil
}

// walkDir recurses into dir, appending admitted files to files. isRoot
// is true only for the initial call, since the root itself is never
// pruned.
func (w *Walker) walkDir(absRoot, dir string, isRoot bool, files *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("walker: failed to read directory", slog.String("path", dir), slog.String("error", err.Error()))
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if !isRoot && w.pruneDir(entry.Name(), path) {
				continue
			}
			w.walkDir(absRoot, path, false, files)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("walker: failed to stat entry", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		// Symlinks are never followed: os.ReadDir entries report the
		// link's own type, so a symlink never satisfies !IsDir() into
		// a regular file admission below unless it resolves locally;
		// skip anything that isn't a plain regular file.
		if info.Mode()&os.ModeSymlink != 0 || !info.Mode().IsRegular() {
			continue
		}

		if w.admit(path, info.Size()) {
			*files = append(*files, path)
		}
	}
}

// pruneDir reports whether a directory should never be visited.
func (w *Walker) pruneDir(name, path string) bool {
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	return w.matchesAny(w.exclude, path)
}

// admit reports whether a regular file passes the walker's filters.
func (w *Walker) admit(path string, size int64) bool {
	if size > int64(w.maxFileSizeMB)*1024*1024 {
		return false
	}
	if len(w.include) > 0 && !w.matchesAny(w.include, path) && !w.matchesAny(w.include, filepath.Base(path)) {
		return false
	}
	if w.matchesAny(w.exclude, path) {
		return false
	}
	return true
}

// matchesAny reports whether path matches any glob in patterns.
func (w *Walker) matchesAny(patterns []string, path string) bool {
	slashPath := filepath.ToSlash(path)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, slashPath); ok {
			return true
		}
	}
	return false
}
