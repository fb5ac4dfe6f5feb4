package config

import (
	"fmt"
	"time"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validBackends defines the allowed reviewer backend values. Empty means
// the same as "none".
var validBackends = map[string]bool{
	"":               true,
	BackendNone:      true,
	BackendClaudeCLI: true,
	BackendAnthropic: true,
	BackendOpenAI:    true,
}

// Validate validates a parsed Config, checking that all fields contain
// valid values. It validates:
//   - Reviewer.Backend is one of: none, claude-cli, anthropic, openai
//   - Reviewer.Command is present when the backend is claude-cli
//   - Reviewer.Timeout parses as a positive duration (if non-empty)
//   - Log.Level is one of: debug, info, warn, error (if non-empty)
//
// Returns nil if the config is valid, or an error with a clear message
// indicating which field is invalid.
func Validate(cfg *Config) error {
	if !validBackends[cfg.Reviewer.Backend] {
		return fmt.Errorf("reviewer.backend: invalid value %q, must be one of: none, claude-cli, anthropic, openai",
			cfg.Reviewer.Backend)
	}
	if cfg.Reviewer.Backend == BackendClaudeCLI && cfg.Reviewer.Command == "" {
		return fmt.Errorf("reviewer.command: required for the claude-cli backend")
	}
	if cfg.Reviewer.Timeout != "" {
		d, err := time.ParseDuration(cfg.Reviewer.Timeout)
		if err != nil {
			return fmt.Errorf("reviewer.timeout: invalid duration %q", cfg.Reviewer.Timeout)
		}
		if d <= 0 {
			return fmt.Errorf("reviewer.timeout: must be positive, got %q", cfg.Reviewer.Timeout)
		}
	}

	if cfg.Log.Level != "" {
		if !validLogLevels[cfg.Log.Level] {
			return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
		}
	}

	return nil
}
