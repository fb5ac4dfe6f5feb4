// Package pathzone classifies filesystem paths into trust zones relative
// to a project root. Sensitive classification takes precedence over
// containment: a credential file inside the project tree is still
// sensitive.
package pathzone

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xdg/toolgate/internal/pathutil"
)

// Zone is the trust classification of a filesystem path.
type Zone int

const (
	// ZoneOutside is the zero value so an unclassified path never reads
	// as inside the project.
	ZoneOutside Zone = iota
	ZoneInside
	ZoneSensitive
)

func (z Zone) String() string {
	switch z {
	case ZoneInside:
		return "inside_project"
	case ZoneSensitive:
		return "sensitive"
	default:
		return "outside_project"
	}
}

// sensitiveSystemDirs are absolute prefixes that are never ordinary
// write targets regardless of project root.
var sensitiveSystemDirs = []string{
	"/etc", "/boot", "/sys", "/proc", "/dev",
	"/bin", "/sbin", "/lib", "/usr", "/var",
}

// sensitiveHomeDirs are credential directories under the user's home.
var sensitiveHomeDirs = []string{
	".ssh", ".gnupg", ".aws", ".kube", ".docker",
}

// keyFilePrefixes are private-key filenames matched anywhere on disk.
var keyFilePrefixes = []string{"id_rsa", "id_ed25519", "id_ecdsa", "id_dsa"}

// Classifier maps paths to trust zones. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	dirs []string
}

// NewClassifier builds a classifier using the current user's home
// directory for the credential-directory checks. A missing home
// directory just disables those checks.
func NewClassifier() *Classifier {
	c := &Classifier{}
	c.dirs = append(c.dirs, sensitiveSystemDirs...)
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		for _, d := range sensitiveHomeDirs {
			c.dirs = append(c.dirs, filepath.Join(home, d))
		}
	}
	return c
}

// Classify maps path to a trust zone relative to root. Relative paths
// are resolved against root; a leading ~ is expanded. Symlinks are
// followed where possible so a link inside the project cannot launder a
// sensitive or external target. Paths that cannot be resolved are
// judged on their lexical form, which never upgrades them past where
// the literal path would land.
func (c *Classifier) Classify(path, root string) Zone {
	if path == "" {
		return ZoneOutside
	}
	abs := pathutil.ExpandHome(path)
	if !filepath.IsAbs(abs) {
		if root == "" {
			return ZoneOutside
		}
		abs = filepath.Join(root, abs)
	}
	abs = filepath.Clean(abs)
	resolved := resolve(abs)

	// Check both forms: the literal path catches writes through a
	// symlinked credential directory, the resolved path catches links
	// pointing at one.
	if c.sensitive(abs) || c.sensitive(resolved) {
		return ZoneSensitive
	}
	if root != "" && pathutil.WithinRoot(resolve(filepath.Clean(root)), resolved) {
		return ZoneInside
	}
	return ZoneOutside
}

func (c *Classifier) sensitive(abs string) bool {
	for _, d := range c.dirs {
		if pathutil.WithinRoot(d, abs) {
			return true
		}
	}
	return sensitiveName(filepath.Base(abs))
}

// resolve follows symlinks. When the full path does not exist yet, the
// parent directory is resolved and the base rejoined, so a new file
// under a linked directory still lands in the right zone. Failing that
// the cleaned lexical path is returned.
func resolve(abs string) string {
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r
	}
	dir, base := filepath.Split(abs)
	if r, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
		return filepath.Join(r, base)
	}
	return abs
}

// sensitiveName reports whether a bare filename is a credential or
// environment file regardless of location.
func sensitiveName(base string) bool {
	switch base {
	case ".netrc", ".npmrc", ".pgpass":
		return true
	}
	if strings.HasPrefix(base, ".env") || strings.HasSuffix(base, ".env") {
		return true
	}
	if strings.HasSuffix(base, ".pem") {
		return true
	}
	for _, p := range keyFilePrefixes {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}
