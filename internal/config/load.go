package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/pathutil"
)

// Load loads the configuration from the default config path.
// If the config file doesn't exist, defaults are written out and returned.
// If the file exists but cannot be read, parsed, or validated, it returns
// an error; callers treat that as fatal so the gate never serves with a
// half-understood policy. All paths containing ~ are expanded to the
// actual home directory.
func Load() (*Config, error) {
	path := Path()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			clog.Debug("config: %s not found, using defaults", path)
			if writeErr := WriteDefaultConfig(false); writeErr != nil {
				clog.Warn("config: failed to create default config: %v", writeErr)
			}
			cfg := Default()
			expandPaths(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.RulesFile == "" {
		cfg.RulesFile = RulesPath()
	}
	expandPaths(cfg)
	return cfg, nil
}

// expandPaths expands ~ to the home directory in all path fields of the
// configuration.
func expandPaths(cfg *Config) {
	cfg.RulesFile = pathutil.ExpandHome(cfg.RulesFile)
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	cfg.Audit.File = pathutil.ExpandHome(cfg.Audit.File)
	cfg.History.Path = pathutil.ExpandHome(cfg.History.Path)
}
