package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xdg/toolgate/internal/config"
	"github.com/xdg/toolgate/internal/prompt"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config and rule files",
	Long: `Create the toolgate config and rule files with sensible defaults.

The wizard asks which reviewer backend should judge requests that no
rule or hazard pattern decides:

  none        no reviewer; undecided requests defer to the human
  claude-cli  pipe requests through an agent CLI subprocess
  anthropic   Anthropic Messages API
  openai      OpenAI-compatible Chat Completions API

API keys entered here are stored in the config file (0600). Leave the
key empty to use the provider's environment variable instead.`,
	RunE: runInit,
}

// initPrompter is the prompter used by init. It can be overridden for
// testing.
var initPrompter prompt.Prompter

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config and rule files")
	rootCmd.AddCommand(initCmd)
}

// getInitPrompter returns the prompter to use for init.
func getInitPrompter(cmd *cobra.Command) prompt.Prompter {
	if initPrompter != nil {
		return initPrompter
	}
	return prompt.NewTerminal(os.Stdin, cmd.OutOrStdout())
}

// reviewerBackends lists the selectable backends in display order. The
// default selection is none, the conservative choice.
var reviewerBackends = []string{
	config.BackendNone,
	config.BackendClaudeCLI,
	config.BackendAnthropic,
	config.BackendOpenAI,
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	p := getInitPrompter(cmd)

	cfgPath := config.Path()
	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		replace, err := p.Confirm(fmt.Sprintf("Config already exists at %s. Replace?", cfgPath), false)
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !replace {
			_, _ = fmt.Fprintln(out, "Init canceled. Existing config unchanged.")
			return nil
		}
	}

	_, _ = fmt.Fprintln(out, "Reviewer backend for requests no rule decides:")
	idx, err := p.Select("Backend", reviewerBackends, 0)
	if err != nil {
		return fmt.Errorf("read backend selection: %w", err)
	}
	backend := reviewerBackends[idx]

	cfg := config.Default()
	cfg.Reviewer.Backend = backend

	switch backend {
	case config.BackendClaudeCLI:
		cfg.Reviewer.Command = "claude"
		cfg.Reviewer.Args = []string{"-p"}
	case config.BackendAnthropic, config.BackendOpenAI:
		key, err := p.ReadSecret("API key (empty to use the environment): ")
		if err != nil {
			return fmt.Errorf("read API key: %w", err)
		}
		cfg.Reviewer.APIKey = strings.TrimSpace(key)
	}

	// The annotated template documents every setting; it matches
	// Default(), so it is only usable when nothing was customized.
	if backend == config.BackendNone {
		err = config.WriteDefaultConfig(true)
	} else {
		err = config.WriteConfig(cfg)
	}
	if err != nil {
		return err
	}

	// Rule files carry user policy, so an existing one is only replaced
	// with an explicit --force.
	if err := config.WriteDefaultRules(initForce); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\nConfig written to %s\n", cfgPath)
	_, _ = fmt.Fprintf(out, "Rules file at     %s\n", config.RulesPath())
	_, _ = fmt.Fprintln(out, "\nRegister 'toolgate hook' as a permission hook in your agent runtime.")
	return nil
}
