package cmd

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xdg/toolgate/internal/audit"
	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/config"
	"github.com/xdg/toolgate/internal/engine"
	"github.com/xdg/toolgate/internal/history"
	"github.com/xdg/toolgate/internal/hook"
	"github.com/xdg/toolgate/internal/project"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Decide one permission request (JSON in, JSON out)",
	Long: `Decide a single permission request from an agent runtime.

Reads one JSON request ({"tool_name", "tool_input", "cwd"}) from stdin,
runs the decision pipeline, and writes the verdict to stdout:

  {"decision":"allow"}                   permit the call
  {"decision":"deny","message":"..."}    block the call, with the reason
  (no output)                            defer to the host's own prompt

Intended to be registered as a permission hook, not run by hand. Use
'toolgate check' to exercise the same pipeline interactively.`,
	RunE: runHook,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, _ []string) error {
	return serveDecision(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

// serveDecision handles one request end to end: decode, decide, record,
// respond. Config and rule-file errors are fatal with no verdict written
// (the gate refuses to serve a partial policy); a malformed request
// resolves to ask. Stdout carries only the verdict.
func serveDecision(ctx context.Context, in io.Reader, out io.Writer) error {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := clog.Configure(cfg.Log.File, cfg.Log.Level == "debug", true); err != nil {
		return err
	}
	defer func() { _ = clog.Close() }()

	id := uuid.NewString()
	req, err := hook.Decode(in)
	if err != nil {
		clog.Warn("hook %s: %v", id, err)
		return nil
	}

	set, err := config.LoadRules(cfg, project.FindRoot(req.Cwd))
	if err != nil {
		clog.Error("hook %s: %v", id, err)
		return err
	}

	res := newEngine(cfg, set).Evaluate(ctx, &req)
	recordDecision(cfg, id, hook.ParseAction(req), res, time.Since(start))

	switch res.Decision {
	case engine.DecisionAllow:
		return hook.WriteAllow(out)
	case engine.DecisionDeny:
		return hook.WriteDeny(out, res.Message)
	default:
		return nil
	}
}

// recordDecision appends the decision to the audit log and the history
// store. Both are best-effort: a recording failure is logged and never
// changes the verdict.
func recordDecision(cfg *config.Config, id string, act hook.Action, res engine.Result, d time.Duration) {
	if cfg.Audit.Enabled && cfg.Audit.File != "" {
		f, err := clog.OpenLogFile(cfg.Audit.File)
		if err != nil {
			clog.Warn("audit log: %v", err)
		} else {
			logAuditEvent(audit.NewLogger(f), id, act, res, d)
			_ = f.Close()
		}
	}

	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path = history.DefaultPath()
		}
		store, err := history.Open(path)
		if err != nil {
			clog.Warn("history store: %v", err)
			return
		}
		defer func() { _ = store.Close() }()

		rec := &history.Record{
			ID:       id,
			Tool:     act.Tool,
			Action:   act.Summary(),
			Decision: res.Decision.String(),
			Stage:    res.Stage,
			Reason:   res.Message,
			Duration: d,
		}
		if err := store.Save(rec); err != nil {
			clog.Warn("history store: %v", err)
		}
	}
}

func logAuditEvent(l *audit.Logger, id string, act hook.Action, res engine.Result, d time.Duration) {
	var err error
	switch res.Decision {
	case engine.DecisionAllow:
		err = l.LogAllow(id, act.Tool, act.Summary(), res.Stage, res.Message, d)
	case engine.DecisionDeny:
		err = l.LogDeny(id, act.Tool, act.Summary(), res.Stage, res.Message, d)
	default:
		err = l.LogAsk(id, act.Tool, act.Summary(), res.Stage, res.Message, d)
	}
	if err != nil {
		clog.Warn("audit log: %v", err)
	}
}
