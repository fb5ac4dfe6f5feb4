package config

import (
	"fmt"
	"os"

	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/rules"
)

// LoadRules loads the global rule file named by cfg and, when projectDir
// is non-empty, merges in the project's rule overlay before compiling.
// The global deny list stays ahead of anything the overlay adds, so a
// project file can widen its own allowances but never shadow a global
// deny. Any parse or compile failure is an error; callers treat it as
// fatal rather than serving with partial policy.
func LoadRules(cfg *Config, projectDir string) (*rules.Set, error) {
	path := cfg.RulesFile
	if path == "" {
		path = RulesPath()
	}

	base, err := rules.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	merged := base
	if projectDir != "" {
		overlayPath := ProjectRulesPath(projectDir)
		overlay, err := rules.ReadFile(overlayPath)
		if err != nil {
			return nil, fmt.Errorf("load project rules: %w", err)
		}
		if len(overlay.Deny) > 0 || len(overlay.Allow) > 0 {
			clog.Debug("config: merging %d deny / %d allow rules from %s",
				len(overlay.Deny), len(overlay.Allow), overlayPath)
		}
		merged = rules.Merge(base, overlay)
	}

	set, err := rules.Compile(merged)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	return set, nil
}

// RulesFileExists reports whether the global rule file named by cfg is
// present on disk.
func RulesFileExists(cfg *Config) bool {
	path := cfg.RulesFile
	if path == "" {
		path = RulesPath()
	}
	_, err := os.Stat(path)
	return err == nil
}
