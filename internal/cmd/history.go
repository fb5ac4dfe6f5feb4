package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xdg/toolgate/internal/config"
	"github.com/xdg/toolgate/internal/history"
	"github.com/xdg/toolgate/internal/term"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent gate decisions",
	Long: `Show recent decisions from the local history store, newest first.

Each hook invocation records its verdict when history is enabled in the
config. Use --clear to delete all recorded decisions.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of decisions to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded decisions")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		term.Warn("history recording is disabled in config")
	}

	path := cfg.History.Path
	if path == "" {
		path = history.DefaultPath()
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if historyClear {
		n, err := store.Clear()
		if err != nil {
			return err
		}
		term.Printf("Removed %d decision(s)\n", n)
		return nil
	}

	recs, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		term.Println("No recorded decisions.")
		return nil
	}

	w := tabwriter.NewWriter(term.Stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTOOL\tDECISION\tSTAGE\tACTION")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Tool,
			r.Decision,
			r.Stage,
			truncateAction(r.Action, 60),
		)
	}
	_ = w.Flush()
	return nil
}

// truncateAction shortens long command lines for table display.
func truncateAction(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
