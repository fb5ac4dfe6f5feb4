// Package project locates the working tree that contains a path. Rule
// overlays and path containment are judged against the tree root, not
// the raw working directory a request reports, which may be anywhere
// inside the tree.
package project

import (
	"os"
	"path/filepath"
)

// markers are directory entries that identify a working tree root.
var markers = []string{".toolgate.yaml", ".git"}

// FindRoot walks from dir toward the filesystem root and returns the
// nearest directory, dir included, that holds a tree marker. Walking
// bottom-up means a nested project with its own overlay wins over an
// enclosing repository. When dir is empty it is returned as is; when no
// ancestor has a marker, dir is returned in cleaned absolute form so
// callers fall back to treating the working directory as the root.
func FindRoot(dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	abs = filepath.Clean(abs)
	for d := abs; ; {
		if hasMarker(d) {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs
		}
		d = parent
	}
}

// hasMarker reports whether d directly contains a tree marker. A .git
// entry is a file in linked worktrees, so any entry type counts.
func hasMarker(d string) bool {
	for _, m := range markers {
		if _, err := os.Lstat(filepath.Join(d, m)); err == nil {
			return true
		}
	}
	return false
}
