// Package config provides configuration types for toolgate settings.
// These types map to the YAML configuration file at
// ~/.config/toolgate/config.yaml.
package config

import (
	"os"
	"time"
)

// Config represents the top-level toolgate configuration.
type Config struct {
	RulesFile string         `yaml:"rules_file,omitempty"`
	SkipTools []string       `yaml:"skip_tools,omitempty"`
	Reviewer  ReviewerConfig `yaml:"reviewer,omitempty"`
	Log       LogConfig      `yaml:"log,omitempty"`
	Audit     AuditConfig    `yaml:"audit,omitempty"`
	History   HistoryConfig  `yaml:"history,omitempty"`
}

// Reviewer backend names.
const (
	BackendNone      = "none"
	BackendClaudeCLI = "claude-cli"
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

// ReviewerConfig selects and configures the review oracle backend.
// Command and Args apply to the claude-cli backend; Model, BaseURL and
// the API key fields apply to the hosted API backends.
type ReviewerConfig struct {
	Backend   string   `yaml:"backend,omitempty"`
	Command   string   `yaml:"command,omitempty"`
	Args      []string `yaml:"args,omitempty"`
	Model     string   `yaml:"model,omitempty"`
	BaseURL   string   `yaml:"base_url,omitempty"`
	APIKey    string   `yaml:"api_key,omitempty"`
	APIKeyEnv string   `yaml:"api_key_env,omitempty"`
	Timeout   string   `yaml:"timeout,omitempty"`
}

// TimeoutDuration returns the configured reviewer timeout, or zero when
// unset so the adapter applies its own default.
func (r ReviewerConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ResolvedAPIKey returns the API key for hosted backends: the literal
// api_key value when set, otherwise the value of the environment variable
// named by api_key_env. Empty means the SDK falls back to its own
// environment default.
func (r ReviewerConfig) ResolvedAPIKey() string {
	if r.APIKey != "" {
		return r.APIKey
	}
	if r.APIKeyEnv != "" {
		return os.Getenv(r.APIKeyEnv)
	}
	return ""
}

// LogConfig contains diagnostic logging settings.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// AuditConfig controls the append-only decision audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	File    string `yaml:"file,omitempty"`
}

// HistoryConfig controls the SQLite decision history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}
