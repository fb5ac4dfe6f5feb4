package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/script"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// Request carries everything the oracle needs to judge one action.
type Request struct {
	Tool   string
	Input  map[string]any
	Cwd    string
	Script *script.Reference
}

// Adapter wraps an Oracle with prompt construction, a hard timeout, and
// response validation. It makes exactly one attempt per request;
// retrying is a policy question for callers, not the adapter, so
// worst-case latency stays predictable.
type Adapter struct {
	oracle  Oracle
	timeout time.Duration
}

// NewAdapter returns an adapter around oracle. A non-positive timeout
// selects DefaultTimeout. A nil oracle is allowed and makes every
// review resolve to the unavailable verdict.
func NewAdapter(oracle Oracle, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{oracle: oracle, timeout: timeout}
}

// Review asks the oracle about one request. All failures resolve to
// Unavailable; the returned verdict is never an allow unless the oracle
// produced a well-formed allow.
func (a *Adapter) Review(ctx context.Context, r Request) Verdict {
	if a.oracle == nil {
		return Unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	raw, err := a.oracle.Review(ctx, BuildPrompt(r))
	if err != nil {
		clog.Warn("review: %s oracle failed after %s: %v", a.oracle.Name(), time.Since(start).Round(time.Millisecond), err)
		return Unavailable()
	}

	v, err := parseVerdict(raw)
	if err != nil {
		clog.Warn("review: %s oracle returned malformed verdict: %v", a.oracle.Name(), err)
		return Unavailable()
	}
	clog.Debug("review: %s oracle said %s in %s", a.oracle.Name(), v.Decision, time.Since(start).Round(time.Millisecond))
	return v
}

const (
	scriptBegin = "-----BEGIN SCRIPT-----"
	scriptEnd   = "-----END SCRIPT-----"
)

// BuildPrompt renders the review prompt: tool identifier, serialized
// parameters, working directory, and the script content verbatim
// between markers when the request executes a file.
func BuildPrompt(r Request) string {
	var b strings.Builder
	b.WriteString("Review this tool execution request from an autonomous agent and judge whether it is safe to run without human confirmation.\n\n")
	fmt.Fprintf(&b, "Tool: %s\n", r.Tool)
	if len(r.Input) > 0 {
		if data, err := json.Marshal(r.Input); err == nil {
			fmt.Fprintf(&b, "Input: %s\n", data)
		}
	}
	if r.Cwd != "" {
		fmt.Fprintf(&b, "Working directory: %s\n", r.Cwd)
	}
	if r.Script != nil {
		b.WriteString("\n")
		if r.Script.Unreadable {
			fmt.Fprintf(&b, "The command executes the script %s, which could not be read. Treat the request as unverified.\n", r.Script.Path)
		} else {
			fmt.Fprintf(&b, "The command executes the script %s", r.Script.Path)
			if r.Script.Truncated {
				fmt.Fprintf(&b, " (content truncated to the first %d bytes)", len(r.Script.Content))
			}
			b.WriteString(". Its content is between the markers:\n")
			b.WriteString(scriptBegin)
			b.WriteString("\n")
			b.Write(r.Script.Content)
			if n := len(r.Script.Content); n > 0 && r.Script.Content[n-1] != '\n' {
				b.WriteString("\n")
			}
			b.WriteString(scriptEnd)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"decision": "allow" | "deny" | "ask", "reason": "<short explanation>"}` + "\n")
	b.WriteString(`Use "allow" only when confident the action is safe, "deny" when it is clearly destructive or exfiltrates data, and "ask" when unsure.` + "\n")
	return b.String()
}

// parseVerdict validates the oracle's response against the fixed
// schema. A fenced code block around the JSON is tolerated; anything
// else malformed is an error.
func parseVerdict(raw string) (Verdict, error) {
	text := strings.TrimSpace(raw)
	if after, found := strings.CutPrefix(text, "```"); found {
		after = strings.TrimPrefix(after, "json")
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		text = strings.TrimSpace(after)
	}

	var resp struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}

	var d Decision
	switch resp.Decision {
	case "allow":
		d = DecisionAllow
	case "deny":
		d = DecisionDeny
	case "ask":
		d = DecisionAsk
	default:
		return Verdict{}, fmt.Errorf("unknown decision %q", resp.Decision)
	}
	return Verdict{Decision: d, Reason: resp.Reason, Advisory: true}, nil
}
