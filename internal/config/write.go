package config

import (
	"errors"
	"fmt"
	"os"
)

// defaultConfigTemplate is the annotated configuration written on first
// run. It must stay parseable by Parse and valid under Validate, since
// the next load reads it back.
const defaultConfigTemplate = `# toolgate configuration
#
# rules_file names the global rule file. A ` + ProjectRulesName + ` file at a
# project root contributes additional rules for requests under that root;
# global deny rules always win over project additions.
rules_file: ~/.config/toolgate/rules.yaml

# Tool names passed through without evaluation (the host applies its own
# defaults for these).
skip_tools:
  - Read
  - Glob
  - Grep
  - WebSearch
  - TodoWrite

reviewer:
  # backend selects the review oracle: none, claude-cli, anthropic, openai.
  # With "none", anything the rules and hazard scan do not settle is left
  # to the host's interactive prompt.
  backend: none
  # command: claude
  # args: ["-p"]
  # model: claude-haiku-4-5
  # api_key_env: ANTHROPIC_API_KEY
  timeout: 30s

log:
  file: ~/.local/state/toolgate/toolgate.log
  level: info

audit:
  enabled: true
  file: ~/.local/state/toolgate/audit.log

history:
  enabled: true
  path: ~/.local/state/toolgate/history.db
`

// defaultRulesTemplate is the starter rule file. Deny rules are evaluated
// before allow rules regardless of their order here.
const defaultRulesTemplate = `# toolgate rules
#
# Each entry scopes one glob pattern to a tool family:
#   shell: matches the full command string
#   path:  matches file paths, ** crosses directories
#   fetch: matches request hosts, *.example.com covers subdomains
#   tool:  matches raw tool names, covering MCP tools
deny:
  - shell: "git push --force*"
  - path: "**/.env*"
  - path: "**/id_rsa*"
allow:
  - shell: "git status"
  - shell: "git diff*"
  - shell: "git log*"
  # - fetch: "pkg.go.dev"
  # - tool: "mcp__docs__*"
`

// WriteDefaultConfig creates the default configuration file with helpful
// comments. If the config file already exists and force is false, it
// returns nil without overwriting. The config directory is created if it
// doesn't exist. The file is written with 0600 permissions (user
// read/write only).
func WriteDefaultConfig(force bool) error {
	return writeTemplate(Path(), defaultConfigTemplate, force)
}

// WriteDefaultRules creates the default rule file. If the file already
// exists and force is false, it returns nil without overwriting.
func WriteDefaultRules(force bool) error {
	return writeTemplate(RulesPath(), defaultRulesTemplate, force)
}

func writeTemplate(path, content string, force bool) error {
	_, err := os.Stat(path)
	if err == nil && !force {
		// File exists, don't overwrite
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	// User-only permissions
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteConfig writes a configuration to the config directory, overwriting
// any existing file. The config directory is created if it doesn't exist.
// The file is written with 0600 permissions (user read/write only).
func WriteConfig(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err = os.WriteFile(Path(), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
