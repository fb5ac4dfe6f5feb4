// Package engine runs the layered decision pipeline: deterministic
// rules, hazard scan, script extraction, external review, and the
// path-zone override, in that order. Stages are walked until one
// produces a result; a deny can never be upgraded by a later stage
// because denied requests never reach one.
package engine

import (
	"context"
	"fmt"

	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/hazard"
	"github.com/xdg/toolgate/internal/hook"
	"github.com/xdg/toolgate/internal/pathzone"
	"github.com/xdg/toolgate/internal/project"
	"github.com/xdg/toolgate/internal/review"
	"github.com/xdg/toolgate/internal/rules"
	"github.com/xdg/toolgate/internal/script"
)

// Decision is the engine's final classification of a request.
type Decision int

const (
	// DecisionAsk is the zero value: a request that was not decided
	// defers to the human.
	DecisionAsk Decision = iota
	DecisionAllow
	DecisionDeny
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	default:
		return "ask"
	}
}

// Stage names used for decision attribution.
const (
	StageRules        = "rules"
	StageHazard       = "hazard"
	StageReview       = "review"
	StagePathOverride = "path_override"
	StageSkipped      = "skipped"
)

// Result is the engine's verdict for one request.
type Result struct {
	Decision Decision
	Message  string // user-facing for deny; log-only for ask
	Stage    string // which stage decided
}

// Rules classifies an action against the configured rule set.
type Rules interface {
	Classify(a hook.Action) rules.Match
}

// Hazards scans command text for known-dangerous shapes.
type Hazards interface {
	Scan(command string) *hazard.Match
}

// Scripts detects interpreter-runs-a-file shapes and loads the file.
type Scripts interface {
	Detect(command, cwd string) *script.Reference
}

// Reviewer consults the external verdict oracle.
type Reviewer interface {
	Review(ctx context.Context, r review.Request) review.Verdict
}

// Paths classifies filesystem paths into trust zones.
type Paths interface {
	Classify(path, root string) pathzone.Zone
}

// Config wires the engine's collaborators. Any nil collaborator
// degrades conservatively: nil Rules or Hazards skip their stage, a
// nil Reviewer makes review resolve to ask, and a nil Paths makes
// every reviewer allow downgrade to ask.
type Config struct {
	Rules     Rules
	Hazards   Hazards
	Scripts   Scripts
	Reviewer  Reviewer
	Paths     Paths
	SkipTools []string
}

// Engine evaluates requests. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	rules    Rules
	hazards  Hazards
	scripts  Scripts
	reviewer Reviewer
	paths    Paths
	skip     map[string]bool
	stages   []stageFunc
}

type stageFunc func(ctx context.Context, ev *evaluation) *Result

// evaluation carries one request through the stage walk.
type evaluation struct {
	req    *hook.Request
	action hook.Action
	root   string       // working tree root containing req.Cwd
	allow  *rules.Match // allow match recorded by the rule stage
}

// New builds an engine from cfg.
func New(cfg Config) *Engine {
	e := &Engine{
		rules:    cfg.Rules,
		hazards:  cfg.Hazards,
		scripts:  cfg.Scripts,
		reviewer: cfg.Reviewer,
		paths:    cfg.Paths,
		skip:     make(map[string]bool, len(cfg.SkipTools)),
	}
	for _, t := range cfg.SkipTools {
		e.skip[t] = true
	}
	// Rule denies and hazards are checked before a rule allow is
	// honored, so a dangerous fragment buried in an allow-matched
	// chain still denies.
	e.stages = []stageFunc{e.ruleDeny, e.hazardScan, e.ruleAllow, e.reviewStage}
	return e
}

// Evaluate produces exactly one result for req. Identical inputs with
// identical collaborator behavior always produce identical results.
func (e *Engine) Evaluate(ctx context.Context, req *hook.Request) Result {
	action := hook.ParseAction(*req)
	if e.skip[action.Tool] {
		clog.Debug("engine: tool %s is skipped, deferring", action.Tool)
		return Result{Decision: DecisionAsk, Stage: StageSkipped}
	}

	ev := &evaluation{req: req, action: action, root: project.FindRoot(req.Cwd)}
	for _, stage := range e.stages {
		if res := stage(ctx, ev); res != nil {
			clog.Debug("engine: %s -> %s at %s: %s", action.Summary(), res.Decision, res.Stage, res.Message)
			return *res
		}
	}
	// The review stage always decides; this is unreachable.
	return Result{Decision: DecisionAsk, Stage: StageReview}
}

// ruleDeny applies deny rules and records an allow match for later.
func (e *Engine) ruleDeny(_ context.Context, ev *evaluation) *Result {
	if e.rules == nil {
		return nil
	}
	m := e.rules.Classify(ev.action)
	switch m.Verb {
	case rules.Deny:
		return &Result{
			Decision: DecisionDeny,
			Message:  fmt.Sprintf("blocked by %s deny rule %q", m.Family, m.Pattern),
			Stage:    StageRules,
		}
	case rules.Allow:
		ev.allow = &m
	}
	return nil
}

func (e *Engine) hazardScan(_ context.Context, ev *evaluation) *Result {
	if e.hazards == nil {
		return nil
	}
	if m := e.hazards.Scan(ev.action.Command); m != nil {
		return &Result{Decision: DecisionDeny, Message: m.Message(), Stage: StageHazard}
	}
	return nil
}

// ruleAllow honors an allow match recorded before the hazard scan.
// Deterministic allows bypass review entirely.
func (e *Engine) ruleAllow(_ context.Context, ev *evaluation) *Result {
	if ev.allow == nil {
		return nil
	}
	return &Result{
		Decision: DecisionAllow,
		Message:  fmt.Sprintf("allowed by %s rule %q", ev.allow.Family, ev.allow.Pattern),
		Stage:    StageRules,
	}
}

// reviewStage consults the oracle, then applies the path-zone
// override. It always returns a result.
func (e *Engine) reviewStage(ctx context.Context, ev *evaluation) *Result {
	var ref *script.Reference
	if ev.action.Kind == hook.KindShell && e.scripts != nil {
		ref = e.scripts.Detect(ev.action.Command, ev.req.Cwd)
	}

	verdict := review.Unavailable()
	if e.reviewer != nil {
		verdict = e.reviewer.Review(ctx, review.Request{
			Tool:   ev.action.Tool,
			Input:  ev.req.ToolInput,
			Cwd:    ev.req.Cwd,
			Script: ref,
		})
	}

	switch verdict.Decision {
	case review.DecisionDeny:
		msg := "denied by reviewer"
		if verdict.Reason != "" {
			msg = fmt.Sprintf("denied by reviewer: %s", verdict.Reason)
		}
		return &Result{Decision: DecisionDeny, Message: msg, Stage: StageReview}
	case review.DecisionAllow:
		if res := e.pathOverride(ev, ref); res != nil {
			return res
		}
		return &Result{Decision: DecisionAllow, Message: verdict.Reason, Stage: StageReview}
	default:
		return &Result{Decision: DecisionAsk, Message: verdict.Reason, Stage: StageReview}
	}
}
