package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xdg/toolgate/internal/hook"
)

// Rule families. Each rule entry names exactly one.
const (
	FamilyShell = "shell" // glob over the full shell command string
	FamilyPath  = "path"  // glob over file paths, ** crosses segments
	FamilyFetch = "fetch" // host name, exact or *.suffix wildcard
	FamilyTool  = "tool"  // glob over raw tool names (covers MCP tools)
)

// Entry is one rule in the file: a glob-style pattern scoped to a single
// tool family. Exactly one field must be set.
type Entry struct {
	Shell string `yaml:"shell,omitempty"`
	Path  string `yaml:"path,omitempty"`
	Fetch string `yaml:"fetch,omitempty"`
	Tool  string `yaml:"tool,omitempty"`
}

// family returns the family name and pattern of the entry, or an error if
// the entry does not name exactly one family.
func (e Entry) family() (string, string, error) {
	var family, pattern string
	n := 0
	if e.Shell != "" {
		family, pattern = FamilyShell, e.Shell
		n++
	}
	if e.Path != "" {
		family, pattern = FamilyPath, e.Path
		n++
	}
	if e.Fetch != "" {
		family, pattern = FamilyFetch, e.Fetch
		n++
	}
	if e.Tool != "" {
		family, pattern = FamilyTool, e.Tool
		n++
	}
	if n != 1 {
		return "", "", fmt.Errorf("rule entry must set exactly one of shell, path, fetch, tool")
	}
	return family, pattern, nil
}

// Describe returns the entry's family and pattern for display. Entries
// taken from a compiled set always name exactly one family.
func (e Entry) Describe() (family, pattern string) {
	family, pattern, _ = e.family()
	return family, pattern
}

// File is the rule file root structure: two ordered pattern lists.
type File struct {
	Deny  []Entry `yaml:"deny,omitempty"`
	Allow []Entry `yaml:"allow,omitempty"`
}

// Load reads and compiles a rule file. A missing file yields an empty,
// valid set. Any parse or compile failure is returned as an error; the
// caller treats that as fatal so the engine never serves with a partial
// policy.
func Load(path string) (*Set, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	set, err := Compile(f)
	if err != nil {
		return nil, fmt.Errorf("compile rule file %s: %w", path, err)
	}
	return set, nil
}

// ReadFile reads and parses a rule file without compiling it, so callers
// can merge several files before compilation. A missing file yields an
// empty, valid File.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes rule file content with strict field checking.
// Unknown fields are an error; empty content is a valid empty file.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&f)
	if errors.Is(err, io.EOF) {
		// Empty input is valid - no rules
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	return &f, nil
}

// Compile turns parsed entries into an immutable matcher set. Pattern
// compilation happens once here; Classify only runs precompiled matchers.
func Compile(f *File) (*Set, error) {
	s := &Set{}
	var err error
	if s.deny, err = compileEntries(f.Deny, "deny"); err != nil {
		return nil, err
	}
	if s.allow, err = compileEntries(f.Allow, "allow"); err != nil {
		return nil, err
	}
	return s, nil
}

// Merge appends the entries of overlay to base, keeping base's deny list
// first so a global deny cannot be shadowed by a project overlay.
func Merge(base, overlay *File) *File {
	if base == nil {
		base = &File{}
	}
	if overlay == nil {
		return base
	}
	merged := &File{
		Deny:  append(append([]Entry{}, base.Deny...), overlay.Deny...),
		Allow: append(append([]Entry{}, base.Allow...), overlay.Allow...),
	}
	return merged
}

// compiledRule holds a compiled matcher with its source entry.
type compiledRule struct {
	family  string
	pattern string
	source  Entry
	match   func(a hook.Action) bool
}

func (r compiledRule) matches(a hook.Action) bool {
	return r.match(a)
}

func compileEntries(entries []Entry, verb string) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(entries))
	for i, e := range entries {
		family, pattern, err := e.family()
		if err != nil {
			return nil, fmt.Errorf("%s rule %d: %w", verb, i+1, err)
		}
		r := compiledRule{family: family, pattern: pattern, source: e}
		switch family {
		case FamilyShell:
			re, err := compileGlob(pattern, false)
			if err != nil {
				return nil, fmt.Errorf("%s rule %d: invalid shell pattern %q: %w", verb, i+1, pattern, err)
			}
			r.match = func(a hook.Action) bool {
				return a.Kind == hook.KindShell && a.Command != "" && re.MatchString(a.Command)
			}
		case FamilyPath:
			matchPath, err := compilePathGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("%s rule %d: invalid path pattern %q: %w", verb, i+1, pattern, err)
			}
			r.match = func(a hook.Action) bool {
				return a.Kind == hook.KindFileWrite && a.Path != "" && matchPath(a.Path)
			}
		case FamilyFetch:
			if err := validateHostPattern(pattern); err != nil {
				return nil, fmt.Errorf("%s rule %d: invalid fetch pattern %q: %w", verb, i+1, pattern, err)
			}
			hostPattern := pattern
			r.match = func(a hook.Action) bool {
				return a.Kind == hook.KindFetch && matchHost(hostPattern, a.URL)
			}
		case FamilyTool:
			re, err := compileGlob(pattern, false)
			if err != nil {
				return nil, fmt.Errorf("%s rule %d: invalid tool pattern %q: %w", verb, i+1, pattern, err)
			}
			r.match = func(a hook.Action) bool {
				return a.Tool != "" && re.MatchString(a.Tool)
			}
		}
		compiled = append(compiled, r)
	}
	return compiled, nil
}

// compilePathGlob builds a matcher for path-family patterns. Patterns
// without a separator match against the path's base name (so ".env*"
// catches an env file anywhere); patterns with separators match the whole
// path with ** crossing segments.
func compilePathGlob(pattern string) (func(string) bool, error) {
	re, err := compileGlob(pattern, true)
	if err != nil {
		return nil, err
	}
	baseOnly := !strings.Contains(pattern, "/")
	return func(path string) bool {
		if baseOnly {
			return re.MatchString(lastSegment(path))
		}
		return re.MatchString(path)
	}, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
