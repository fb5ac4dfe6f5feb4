package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xdg/toolgate/internal/pathutil"
)

// ProjectRulesName is the name of the per-project rule overlay file,
// looked up in a request's working tree root.
const ProjectRulesName = ".toolgate.yaml"

// Dir returns the toolgate configuration directory path.
// By default, this is ~/.config/toolgate/. If the XDG_CONFIG_HOME
// environment variable is set, it uses $XDG_CONFIG_HOME/toolgate/ instead.
// The returned path always has a trailing slash.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "~/.config"
	}
	return pathutil.ExpandHome(base) + "/toolgate/"
}

// EnsureDir creates the toolgate configuration directory if it
// doesn't exist. It uses 0700 permissions for security (user-only access).
// Returns nil if the directory already exists or was successfully created.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}

// Path returns the full path to the configuration file.
// This is Dir() + "config.yaml".
func Path() string {
	return Dir() + "config.yaml"
}

// RulesPath returns the full path to the global rule file.
// This is Dir() + "rules.yaml".
func RulesPath() string {
	return Dir() + "rules.yaml"
}

// ProjectRulesPath returns the path of the rule overlay file for a
// project rooted at dir.
func ProjectRulesPath(dir string) string {
	return filepath.Join(dir, ProjectRulesName)
}
