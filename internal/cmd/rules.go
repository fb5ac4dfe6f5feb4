package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xdg/toolgate/internal/config"
	"github.com/xdg/toolgate/internal/hazard"
	"github.com/xdg/toolgate/internal/project"
	"github.com/xdg/toolgate/internal/rules"
	"github.com/xdg/toolgate/internal/term"
)

var rulesFile string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the effective rule set",
	Long: `Load, validate, and print the compiled rule set.

Without --file this loads the configured global rule file plus the
overlay of the working tree containing the current directory, the same
fail-closed path the hook subcommand serves from, so a malformed file
exits non-zero here too.`,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesFile, "file", "", "rule file to inspect instead of the configured one")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	var set *rules.Set
	var source string

	if rulesFile != "" {
		source = rulesFile
		if _, err := os.Stat(source); err != nil {
			term.Warn("rule file %s does not exist", source)
		}
		var err error
		if set, err = rules.Load(source); err != nil {
			return err
		}
	} else {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		source = cfg.RulesFile
		if !config.RulesFileExists(cfg) {
			term.Warn("rule file %s does not exist; run 'toolgate init' to create it", source)
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		root := project.FindRoot(cwd)
		if set, err = config.LoadRules(cfg, root); err != nil {
			return err
		}

		overlay := config.ProjectRulesPath(root)
		if _, err := os.Stat(overlay); err == nil {
			term.Printf("rule file:       %s\n", source)
			term.Printf("project overlay: %s\n", overlay)
			printRuleSet(set)
			return nil
		}
	}

	term.Printf("rule file: %s\n", source)
	printRuleSet(set)
	return nil
}

func printRuleSet(set *rules.Set) {
	deny, allow := set.Rules()

	term.Printf("\ndeny rules: %d\n", len(deny))
	printEntries(deny)
	term.Printf("\nallow rules: %d\n", len(allow))
	printEntries(allow)

	d := hazard.NewDetector()
	term.Printf("\nhazard patterns: %d (built-in, revision %d)\n", d.Len(), hazard.Revision)
}

func printEntries(entries []rules.Entry) {
	if len(entries) == 0 {
		return
	}
	w := tabwriter.NewWriter(term.Stdout(), 0, 0, 2, ' ', 0)
	for _, e := range entries {
		family, pattern := e.Describe()
		fmt.Fprintf(w, "  %s\t%q\n", family, pattern)
	}
	_ = w.Flush()
}
