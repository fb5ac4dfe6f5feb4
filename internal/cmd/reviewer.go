package cmd

import (
	"github.com/xdg/toolgate/internal/config"
	"github.com/xdg/toolgate/internal/engine"
	"github.com/xdg/toolgate/internal/hazard"
	"github.com/xdg/toolgate/internal/pathzone"
	"github.com/xdg/toolgate/internal/review"
	"github.com/xdg/toolgate/internal/rules"
	"github.com/xdg/toolgate/internal/script"
)

// newEngine assembles the decision pipeline from the configuration and a
// compiled rule set. Both the hook and check commands evaluate through
// this, so a check result is exactly what serving would have decided.
func newEngine(cfg *config.Config, set *rules.Set) *engine.Engine {
	return engine.New(engine.Config{
		Rules:     set,
		Hazards:   hazard.NewDetector(),
		Scripts:   script.NewExtractor(),
		Reviewer:  buildReviewer(cfg),
		Paths:     pathzone.NewClassifier(),
		SkipTools: cfg.SkipTools,
	})
}

// buildReviewer selects the review oracle for the configured backend and
// wraps it in the timeout adapter. The none backend (or an unset one)
// returns nil, which makes the engine resolve review to ask.
func buildReviewer(cfg *config.Config) engine.Reviewer {
	r := cfg.Reviewer

	var oracle review.Oracle
	switch r.Backend {
	case config.BackendClaudeCLI:
		oracle = review.NewCLIOracle(r.Command, r.Args)
	case config.BackendAnthropic:
		oracle = review.NewAnthropicOracle(r.ResolvedAPIKey(), r.Model)
	case config.BackendOpenAI:
		oracle = review.NewOpenAIOracle(r.ResolvedAPIKey(), r.BaseURL, r.Model)
	default:
		return nil
	}
	return review.NewAdapter(oracle, r.TimeoutDuration())
}
