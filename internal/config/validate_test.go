package config

import (
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Validate(Default()) error = %v", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Errorf("Validate(&Config{}) error = %v", err)
	}
}

func TestValidate_Backends(t *testing.T) {
	tests := []struct {
		backend string
		valid   bool
	}{
		{"", true},
		{"none", true},
		{"anthropic", true},
		{"openai", true},
		{"gemini", false},
		{"CLAUDE-CLI", false},
	}

	for _, tc := range tests {
		cfg := &Config{Reviewer: ReviewerConfig{Backend: tc.backend}}
		err := Validate(cfg)
		if tc.valid && err != nil {
			t.Errorf("Validate(backend=%q) error = %v, want nil", tc.backend, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Validate(backend=%q) expected error, got nil", tc.backend)
		}
	}
}

func TestValidate_ClaudeCLIRequiresCommand(t *testing.T) {
	cfg := &Config{Reviewer: ReviewerConfig{Backend: BackendClaudeCLI}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() expected error for claude-cli without command, got nil")
	}
	if !strings.Contains(err.Error(), "reviewer.command") {
		t.Errorf("error message %q should mention 'reviewer.command'", err.Error())
	}

	cfg.Reviewer.Command = "claude"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil with command set", err)
	}
}

func TestValidate_Timeout(t *testing.T) {
	tests := []struct {
		timeout string
		valid   bool
	}{
		{"", true},
		{"30s", true},
		{"1m30s", true},
		{"0s", false},
		{"-5s", false},
		{"soon", false},
	}

	for _, tc := range tests {
		cfg := &Config{Reviewer: ReviewerConfig{Timeout: tc.timeout}}
		err := Validate(cfg)
		if tc.valid && err != nil {
			t.Errorf("Validate(timeout=%q) error = %v, want nil", tc.timeout, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Validate(timeout=%q) expected error, got nil", tc.timeout)
		}
	}
}

func TestValidate_LogLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		cfg := &Config{Log: LogConfig{Level: level}}
		if err := Validate(cfg); err != nil {
			t.Errorf("Validate(level=%q) error = %v, want nil", level, err)
		}
	}

	cfg := &Config{Log: LogConfig{Level: "verbose"}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log.level") {
		t.Errorf("error message %q should mention 'log.level'", err.Error())
	}
}
