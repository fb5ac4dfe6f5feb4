package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/config"
	"github.com/xdg/toolgate/internal/engine"
	"github.com/xdg/toolgate/internal/hook"
	"github.com/xdg/toolgate/internal/project"
	"github.com/xdg/toolgate/internal/term"
)

var (
	checkTool string
	checkCwd  string
	checkJSON bool
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] -- <command or target...>",
	Short: "Evaluate a request without serving the hook protocol",
	Long: `Evaluate one request from the command line and print the verdict.

The arguments form the shell command (for Bash, the default tool), the
target path (for Write/Edit), or the URL (for WebFetch). The request runs
through the same pipeline the hook subcommand serves, including the
configured reviewer backend.

The exit code reports the verdict: 0 allow, 1 deny, 2 ask. With --json
the wire-format verdict is printed instead of a summary; an ask prints
nothing, exactly as the hook protocol does.`,
	Example: `  toolgate check -- git push --force origin main
  toolgate check --tool Write -- /etc/hosts
  toolgate check --json -- rm -rf /tmp/scratch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkTool, "tool", "Bash", "tool name to evaluate as")
	checkCmd.Flags().StringVar(&checkCwd, "cwd", "", "working directory for the request (default: current directory)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the wire-format verdict instead of a summary")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cwd := checkCwd
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := clog.Configure(cfg.Log.File, cfg.Log.Level == "debug", true); err != nil {
		return err
	}
	defer func() { _ = clog.Close() }()

	set, err := config.LoadRules(cfg, project.FindRoot(cwd))
	if err != nil {
		return err
	}

	req := hook.Request{
		ToolName:  checkTool,
		ToolInput: hook.InputForTool(checkTool, strings.Join(args, " ")),
		Cwd:       cwd,
	}
	res := newEngine(cfg, set).Evaluate(cmd.Context(), &req)

	if checkJSON {
		out := cmd.OutOrStdout()
		switch res.Decision {
		case engine.DecisionAllow:
			if err := hook.WriteAllow(out); err != nil {
				return err
			}
		case engine.DecisionDeny:
			if err := hook.WriteDeny(out, res.Message); err != nil {
				return err
			}
		}
	} else {
		term.Printf("decision: %s\n", res.Decision)
		if res.Stage != "" {
			term.Printf("stage:    %s\n", res.Stage)
		}
		if res.Message != "" {
			term.Printf("reason:   %s\n", res.Message)
		}
	}

	switch res.Decision {
	case engine.DecisionDeny:
		return NewExitCodeError(1)
	case engine.DecisionAsk:
		return NewExitCodeError(2)
	}
	return nil
}
