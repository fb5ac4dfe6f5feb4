package engine

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xdg/toolgate/internal/hook"
	"github.com/xdg/toolgate/internal/pathzone"
	"github.com/xdg/toolgate/internal/script"
)

// pathOverride downgrades a reviewer allow to ask unless every path the
// request references resolves inside the project. Denies never reach
// this stage, so the override can only move a verdict downward.
// Returns nil when the allow stands.
func (e *Engine) pathOverride(ev *evaluation, ref *script.Reference) *Result {
	ask := func(msg string) *Result {
		return &Result{Decision: DecisionAsk, Message: msg, Stage: StagePathOverride}
	}

	if ev.action.Kind == hook.KindUnknown {
		return ask("reviewer allowed, but the request shape is unknown and its paths cannot be verified")
	}
	if ref != nil && ref.Unreadable {
		return ask(fmt.Sprintf("reviewer allowed, but script %s could not be read", ref.Path))
	}
	if e.paths == nil {
		return ask("reviewer allowed, but no path classifier is configured")
	}

	paths := referencedPaths(ev.action)
	if ref != nil {
		paths = append(paths, ref.Path)
	}
	if ev.action.Kind == hook.KindFileWrite && len(paths) == 0 {
		return ask("reviewer allowed, but the write target is unknown")
	}
	for _, p := range paths {
		if zone := e.paths.Classify(p, ev.root); zone != pathzone.ZoneInside {
			return ask(fmt.Sprintf("reviewer allowed, but %s is %s", p, zone))
		}
	}
	return nil
}

// referencedPaths lists the filesystem paths an action mentions.
func referencedPaths(a hook.Action) []string {
	switch a.Kind {
	case hook.KindFileWrite:
		if a.Path == "" {
			return nil
		}
		return []string{a.Path}
	case hook.KindShell:
		return extractPaths(a.Command)
	case hook.KindFetch:
		// A file URL reaches the local filesystem, so its path is
		// judged like any other referenced path. Remote URLs carry
		// none; host rules are the fetch family's concern.
		if u, err := url.Parse(a.URL); err == nil && u.Scheme == "file" {
			return []string{u.Path}
		}
		return nil
	default:
		return nil
	}
}

// extractPaths pulls path-like tokens out of free-form shell text.
// Sound extraction from arbitrary shell is impossible, so the heuristic
// over-extracts: every non-flag fragment counts as a potential relative
// path. Over-extraction can only downgrade an allow, never widen one;
// ordinary relative tokens resolve inside the project and pass.
func extractPaths(command string) []string {
	var out []string
	for _, tok := range strings.Fields(command) {
		tok = strings.Trim(tok, `"'`)
		if tok == "" || isShellNoise(tok) {
			continue
		}
		// Redirect and control operators glue onto their operands
		// ("2>err.log", "cat a>b"), so tokens split on operator runs
		// and every fragment is considered on its own.
		for _, frag := range strings.FieldsFunc(tok, isOperatorRune) {
			// For VAR=value and --flag=value, the value is the part
			// that may name a path.
			if i := strings.IndexByte(frag, '='); i >= 0 {
				frag = frag[i+1:]
			}
			if frag == "" || strings.HasPrefix(frag, "-") {
				continue
			}
			if strings.Contains(frag, "://") {
				// A file URL names a local path; other schemes are
				// the fetch family's concern.
				p, ok := strings.CutPrefix(frag, "file://")
				if !ok || p == "" {
					continue
				}
				frag = p
			}
			out = append(out, frag)
		}
	}
	return out
}

func isShellNoise(tok string) bool {
	switch tok {
	case "&&", "||", "|", ";", "&", ">", ">>", "<", "<<", "2>", "2>&1", "&>":
		return true
	}
	return false
}

// isOperatorRune reports characters that form shell redirect and control
// operators when written without surrounding spaces.
func isOperatorRune(r rune) bool {
	switch r {
	case '>', '<', '|', '&', ';':
		return true
	}
	return false
}
