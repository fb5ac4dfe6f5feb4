// Package hazard detects known-dangerous command shapes with a fixed,
// versioned regex set. Detection is independent of the configured rule
// store: it exists to catch dangerous sub-commands embedded inside long
// chained invocations, so every pattern is applied to the entire command
// string, across && ; and | separators, not just the first token.
package hazard

import (
	"fmt"
	"regexp"
)

// Revision identifies the built-in pattern set. Bump it whenever a
// pattern is added, removed, or changed.
const Revision = 2

// Severity classifies how dangerous a matched shape is.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
)

// Match describes the first hazard found in a command.
type Match struct {
	Name     string // short identifier of the pattern
	Severity string
	Reason   string // human-readable description of the shape
	Fragment string // the offending part of the command
}

// Message returns the user-facing denial message, naming the offending
// fragment.
func (m *Match) Message() string {
	return fmt.Sprintf("%s: %q", m.Reason, m.Fragment)
}

// pattern pairs a compiled regex with its metadata.
type pattern struct {
	name     string
	severity string
	reason   string
	re       *regexp.Regexp
}

// Detector scans commands against the built-in pattern set.
// It is immutable after construction and safe for concurrent use.
type Detector struct {
	patterns []pattern
}

// NewDetector compiles the built-in pattern set.
func NewDetector() *Detector {
	return &Detector{patterns: []pattern{
		{
			name:     "recursive-delete",
			severity: SeverityCritical,
			reason:   "recursive file deletion",
			re:       regexp.MustCompile(`(?i)\brm\s+(?:--?[a-z-]+\s+)*(?:-[a-z]*r[a-z]*|--recursive)\b`),
		},
		{
			name:     "shred",
			severity: SeverityCritical,
			reason:   "secure file destruction",
			re:       regexp.MustCompile(`(?i)\bshred\b`),
		},
		{
			name:     "outbound-post",
			severity: SeverityHigh,
			reason:   "outbound data upload",
			re:       regexp.MustCompile(`(?i)\bcurl\b[^|;&]*\s(?:-d|-F|-T|--data(?:-[a-z]+)?|--form|--upload-file|-X\s*POST)\b|\bwget\b[^|;&]*\s--post-(?:data|file)\b`),
		},
		{
			name:     "secure-copy",
			severity: SeverityHigh,
			reason:   "file transfer to remote host",
			re:       regexp.MustCompile(`(?i)\bscp\s`),
		},
		{
			name:     "raw-device-write",
			severity: SeverityCritical,
			reason:   "write to raw block device",
			re:       regexp.MustCompile(`(?i)\bdd\b[^|;&]*\bof=/dev/\S+|>\s*/dev/(?:sd|hd|nvme|vd|loop|mmcblk)[a-z0-9]*\b|\b(?:mkfs|fdisk|wipefs)\b[^|;&]*\s/dev/\S+`),
		},
		{
			name:     "reverse-shell",
			severity: SeverityCritical,
			reason:   "reverse shell idiom",
			re:       regexp.MustCompile(`(?i)/dev/tcp/[^\s/]+/\d+|\bnc\b[^|;&]*\s-[a-z]*e[a-z]*\s|\bncat\b[^|;&]*\s--exec\b|\bsocat\b[^|;&]*\bexec:`),
		},
		// Symbolic grants count only when they reach beyond the owner
		// and group: a bare +w, or a who-class naming a or o.
		{
			name:     "permission-widening",
			severity: SeverityHigh,
			reason:   "world-writable permission change",
			re:       regexp.MustCompile(`(?i)\bchmod\b[^|;&]*\s(?:-[a-z]+\s+)*(?:[0-7]*777|(?:[augo]*[ao][augo]*)?\+[rwxst]*w[rwxst]*)\b`),
		},
	}}
}

// Scan checks a command against the pattern set. Patterns are tried in
// declaration order and the first match wins. Returns nil if nothing
// matches.
func (d *Detector) Scan(command string) *Match {
	if command == "" {
		return nil
	}
	for _, p := range d.patterns {
		if frag := p.re.FindString(command); frag != "" {
			return &Match{
				Name:     p.name,
				Severity: p.severity,
				Reason:   p.reason,
				Fragment: frag,
			}
		}
	}
	return nil
}

// Len returns the number of patterns in the set.
func (d *Detector) Len() int {
	return len(d.patterns)
}
