// Package cmd implements the CLI commands for toolgate.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/toolgate/internal/version"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Permission gate for agent tool calls",
	Long: `Toolgate decides whether an AI coding agent may execute a proposed tool
call (shell command, file write, network fetch) before it runs.

Registered as a permission hook, it answers each request with allow, deny,
or silence (defer to the human) by walking deterministic rules, a hazard
scan, bounded script inspection, and an optional reviewer model. A deny
from the rules or the hazard scan is final; reviewer allows are downgraded
to a prompt when the request touches paths outside the project.`,
	Version: version.Version,
	// Runtime failures should not dump usage; stderr stays readable for
	// the host that invoked the hook.
	SilenceUsage: true,
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}
