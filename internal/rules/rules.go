// Package rules implements the deterministic allow/deny rule store.
// Rules are glob-style patterns scoped to one tool family each, loaded
// once at startup and immutable afterward. Deny patterns are evaluated
// before allow patterns, so an explicit deny always wins over a broader
// allow.
package rules

import (
	"github.com/xdg/toolgate/internal/hook"
)

// Verb is the outcome of classifying an action against the rule set.
type Verb int

const (
	// None indicates no rule matched.
	None Verb = iota
	// Allow indicates an allow rule matched and no deny rule did.
	Allow
	// Deny indicates a deny rule matched.
	Deny
)

// String returns the string representation of a Verb.
func (v Verb) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "none"
	}
}

// Match contains the outcome of classifying an action.
type Match struct {
	Verb    Verb
	Family  string // rule family that matched (empty if None)
	Pattern string // the pattern that matched (empty if None)
}

// Set is a compiled, immutable rule set. It is safe for concurrent use.
type Set struct {
	deny  []compiledRule
	allow []compiledRule
}

// Classify matches the action against deny rules first, then allow rules.
// Returns a Match with Verb None if nothing matches.
func (s *Set) Classify(a hook.Action) Match {
	if s == nil {
		return Match{Verb: None}
	}
	for _, r := range s.deny {
		if r.matches(a) {
			return Match{Verb: Deny, Family: r.family, Pattern: r.pattern}
		}
	}
	for _, r := range s.allow {
		if r.matches(a) {
			return Match{Verb: Allow, Family: r.family, Pattern: r.pattern}
		}
	}
	return Match{Verb: None}
}

// Len returns the number of compiled deny and allow rules.
func (s *Set) Len() (deny, allow int) {
	if s == nil {
		return 0, 0
	}
	return len(s.deny), len(s.allow)
}

// Rules returns the source entries of the compiled set in evaluation
// order, deny first. Used by the rules subcommand for display.
func (s *Set) Rules() (deny, allow []Entry) {
	if s == nil {
		return nil, nil
	}
	for _, r := range s.deny {
		deny = append(deny, r.source)
	}
	for _, r := range s.allow {
		allow = append(allow, r.source)
	}
	return deny, allow
}
