package config

// Default returns a Config with all defaults populated. The defaults are
// conservative: no reviewer backend is selected, so anything the rule file
// and hazard scan do not settle falls back to the host's own prompt.
// Audit logging and decision history are on so operators can see what the
// gate decided.
func Default() *Config {
	return &Config{
		RulesFile: "~/.config/toolgate/rules.yaml",
		SkipTools: []string{
			// Read-only tools with no side effects to gate
			"Read",
			"Glob",
			"Grep",
			"WebSearch",
			"TodoWrite",
		},
		Reviewer: ReviewerConfig{
			Backend: BackendNone,
			Timeout: "30s",
		},
		Log: LogConfig{
			File:  "~/.local/state/toolgate/toolgate.log",
			Level: "info",
		},
		Audit: AuditConfig{
			Enabled: true,
			File:    "~/.local/state/toolgate/audit.log",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.local/state/toolgate/history.db",
		},
	}
}
