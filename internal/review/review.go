// Package review consults an external verdict oracle about requests the
// deterministic stages could not settle. The oracle is treated as
// opaque and possibly unreliable: every failure mode (timeout, bad
// JSON, unknown decision, non-zero exit) collapses to an "ask" verdict,
// never to an allow.
package review

import "context"

// Decision is the oracle's classification of a request.
type Decision int

const (
	// DecisionAsk is the zero value so an unset verdict defers to the
	// human rather than allowing anything.
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

// Verdict is the outcome of one review.
type Verdict struct {
	Decision Decision
	Reason   string
	// Advisory is true when the verdict came from the oracle's own
	// judgment, false when the adapter synthesized it after a failure.
	Advisory bool
}

// ReasonUnavailable is the reason attached when the oracle could not be
// consulted.
const ReasonUnavailable = "review unavailable"

// Unavailable is the fail-safe verdict used for every oracle failure.
func Unavailable() Verdict {
	return Verdict{Decision: DecisionAsk, Reason: ReasonUnavailable}
}

// Oracle is the external reviewing capability. Implementations must
// honor context cancellation and return the oracle's raw text response.
type Oracle interface {
	Name() string
	Review(ctx context.Context, prompt string) (string, error)
}

// systemPrompt frames the task for API-backed oracles.
const systemPrompt = "You are a security reviewer deciding whether an autonomous agent may run a proposed action without human confirmation. Reply with JSON only."
