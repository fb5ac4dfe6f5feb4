package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xdg/toolgate/internal/hook"
)

func mustCompile(t *testing.T, f *File) *Set {
	t.Helper()
	s, err := Compile(f)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return s
}

func shellAction(cmd string) hook.Action {
	return hook.Action{Kind: hook.KindShell, Tool: "Bash", Command: cmd}
}

func TestClassify_DenyBeforeAllow(t *testing.T) {
	s := mustCompile(t, &File{
		Deny:  []Entry{{Shell: "git push*"}},
		Allow: []Entry{{Shell: "git *"}},
	})

	// The broader allow would match, but the deny is evaluated first
	m := s.Classify(shellAction("git push origin main"))
	if m.Verb != Deny {
		t.Errorf("Verb = %v, want Deny", m.Verb)
	}
	if m.Pattern != "git push*" {
		t.Errorf("Pattern = %q, want %q", m.Pattern, "git push*")
	}

	m = s.Classify(shellAction("git status"))
	if m.Verb != Allow {
		t.Errorf("Verb = %v, want Allow", m.Verb)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	s := mustCompile(t, &File{
		Allow: []Entry{{Shell: "ls*"}},
	})

	m := s.Classify(shellAction("rm file.txt"))
	if m.Verb != None {
		t.Errorf("Verb = %v, want None", m.Verb)
	}
	if m.Pattern != "" {
		t.Errorf("Pattern = %q, want empty", m.Pattern)
	}
}

func TestClassify_ShellGlobAnchored(t *testing.T) {
	s := mustCompile(t, &File{
		Allow: []Entry{{Shell: "git status"}},
	})

	if m := s.Classify(shellAction("git status")); m.Verb != Allow {
		t.Errorf("exact command: Verb = %v, want Allow", m.Verb)
	}
	// Pattern has no trailing * so a longer command must not match
	if m := s.Classify(shellAction("git status && rm -rf /")); m.Verb != None {
		t.Errorf("extended command: Verb = %v, want None", m.Verb)
	}
}

func TestClassify_FamilyScoping(t *testing.T) {
	s := mustCompile(t, &File{
		Allow: []Entry{{Shell: "*"}},
	})

	// A shell pattern must not match a file write
	m := s.Classify(hook.Action{Kind: hook.KindFileWrite, Tool: "Write", Path: "notes.txt"})
	if m.Verb != None {
		t.Errorf("Verb = %v, want None for non-shell action", m.Verb)
	}

	// Nor an empty command
	m = s.Classify(hook.Action{Kind: hook.KindShell, Tool: "Bash"})
	if m.Verb != None {
		t.Errorf("Verb = %v, want None for empty command", m.Verb)
	}
}

func TestClassify_PathPatterns(t *testing.T) {
	s := mustCompile(t, &File{
		Deny: []Entry{
			{Path: ".env*"},
			{Path: "**/secrets/*.yaml"},
		},
		Allow: []Entry{
			{Path: "docs/*.md"},
		},
	})

	tests := []struct {
		path string
		want Verb
	}{
		{".env", Deny},
		{".env.local", Deny},
		{"src/app/.env.production", Deny}, // base-name pattern matches anywhere
		{"secrets/prod.yaml", Deny},       // **/ also matches zero directories
		{"deploy/secrets/prod.yaml", Deny},
		{"docs/readme.md", Allow},
		{"docs/nested/readme.md", None}, // single * does not cross segments
		{"main.go", None},
	}

	for _, tt := range tests {
		a := hook.Action{Kind: hook.KindFileWrite, Tool: "Write", Path: tt.path}
		if m := s.Classify(a); m.Verb != tt.want {
			t.Errorf("Classify(%q)verb = %v, want %v", tt.path, m.Verb, tt.want)
		}
	}
}

func TestClassify_FetchPatterns(t *testing.T) {
	s := mustCompile(t, &File{
		Deny:  []Entry{{Fetch: "pastebin.com"}},
		Allow: []Entry{{Fetch: "docs.go.dev"}, {Fetch: "*.golang.org"}},
	})

	tests := []struct {
		url  string
		want Verb
	}{
		{"https://docs.go.dev/net/http", Allow},
		{"https://DOCS.GO.DEV/x", Allow},
		{"https://pkg.golang.org/mod", Allow},
		{"https://golang.org/", None}, // wildcard requires a subdomain
		{"https://pastebin.com/raw/abc", Deny},
		{"https://pastebin.com:8443/x", Deny}, // port ignored
		{"https://evil.example.com/", None},
		{"not a url", None},
	}

	for _, tt := range tests {
		a := hook.Action{Kind: hook.KindFetch, Tool: "WebFetch", URL: tt.url}
		if m := s.Classify(a); m.Verb != tt.want {
			t.Errorf("Classify(%q) verb = %v, want %v", tt.url, m.Verb, tt.want)
		}
	}
}

func TestClassify_ToolPatterns(t *testing.T) {
	s := mustCompile(t, &File{
		Deny:  []Entry{{Tool: "mcp__prod_*"}},
		Allow: []Entry{{Tool: "mcp__docs__*"}},
	})

	tests := []struct {
		tool string
		kind hook.Kind
		want Verb
	}{
		{"mcp__docs__search", hook.KindUnknown, Allow},
		{"mcp__prod_db__drop", hook.KindUnknown, Deny},
		{"mcp__other__thing", hook.KindUnknown, None},
	}

	for _, tt := range tests {
		a := hook.Action{Kind: tt.kind, Tool: tt.tool}
		if m := s.Classify(a); m.Verb != tt.want {
			t.Errorf("Classify(tool=%q) verb = %v, want %v", tt.tool, m.Verb, tt.want)
		}
	}
}

func TestClassify_NilSet(t *testing.T) {
	var s *Set
	if m := s.Classify(shellAction("ls")); m.Verb != None {
		t.Errorf("nil set verb = %v, want None", m.Verb)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
deny:
  - shell: "git push --force*"
allow:
  - shell: "git status"
  - fetch: "*.golang.org"
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Deny) != 1 || len(f.Allow) != 2 {
		t.Errorf("Parse() deny=%d allow=%d, want 1 and 2", len(f.Deny), len(f.Allow))
	}
}

func TestParse_EmptyIsValid(t *testing.T) {
	f, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty) error = %v", err)
	}
	if len(f.Deny) != 0 || len(f.Allow) != 0 {
		t.Errorf("Parse(empty) = %+v, want empty file", f)
	}
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("allows:\n  - shell: ls\n"))
	if err == nil {
		t.Fatal("Parse() expected error for unknown field, got nil")
	}
}

func TestCompile_EntryValidation(t *testing.T) {
	tests := []struct {
		name string
		file *File
	}{
		{"no family", &File{Allow: []Entry{{}}}},
		{"two families", &File{Allow: []Entry{{Shell: "ls", Path: "x"}}}},
		{"bad fetch pattern", &File{Allow: []Entry{{Fetch: "*"}}}},
		{"fetch pattern with path", &File{Deny: []Entry{{Fetch: "host/with/path"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.file); err == nil {
				t.Errorf("Compile() expected error, got nil")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &File{
		Deny:  []Entry{{Shell: "git push*"}},
		Allow: []Entry{{Shell: "ls*"}},
	}
	overlay := &File{
		Deny:  []Entry{{Path: ".env*"}},
		Allow: []Entry{{Shell: "make *"}},
	}

	merged := Merge(base, overlay)

	if len(merged.Deny) != 2 || len(merged.Allow) != 2 {
		t.Fatalf("Merge() deny=%d allow=%d, want 2 and 2", len(merged.Deny), len(merged.Allow))
	}
	// Base deny entries stay first
	if merged.Deny[0].Shell != "git push*" {
		t.Errorf("Deny[0] = %+v, want base entry first", merged.Deny[0])
	}

	// Merging must not mutate base
	if len(base.Deny) != 1 {
		t.Errorf("Merge() mutated base deny list: %d entries", len(base.Deny))
	}
}

func TestMerge_NilArgs(t *testing.T) {
	overlay := &File{Allow: []Entry{{Shell: "ls"}}}
	if merged := Merge(nil, overlay); len(merged.Allow) != 1 {
		t.Errorf("Merge(nil, overlay) allow=%d, want 1", len(merged.Allow))
	}
	base := &File{Allow: []Entry{{Shell: "ls"}}}
	if merged := Merge(base, nil); len(merged.Allow) != 1 {
		t.Errorf("Merge(base, nil) allow=%d, want 1", len(merged.Allow))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "deny:\n  - shell: \"rm*\"\nallow:\n  - shell: \"git status\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	deny, allow := s.Len()
	if deny != 1 || allow != 1 {
		t.Errorf("Len() = %d, %d, want 1, 1", deny, allow)
	}
}

func TestLoad_MissingFileIsEmptySet(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	deny, allow := s.Len()
	if deny != 0 || allow != 0 {
		t.Errorf("Len() = %d, %d, want empty set", deny, allow)
	}
}

func TestLoad_MalformedIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("deny: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for malformed file, got nil")
	}
}

func TestVerb_String(t *testing.T) {
	tests := []struct {
		verb Verb
		want string
	}{
		{Allow, "allow"},
		{Deny, "deny"},
		{None, "none"},
	}
	for _, tt := range tests {
		if got := tt.verb.String(); got != tt.want {
			t.Errorf("Verb.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRules_SourceOrder(t *testing.T) {
	s := mustCompile(t, &File{
		Deny:  []Entry{{Shell: "a*"}, {Path: "b*"}},
		Allow: []Entry{{Fetch: "docs.go.dev"}},
	})

	deny, allow := s.Rules()
	if len(deny) != 2 || len(allow) != 1 {
		t.Fatalf("Rules() deny=%d allow=%d, want 2 and 1", len(deny), len(allow))
	}
	if deny[0].Shell != "a*" || deny[1].Path != "b*" {
		t.Errorf("Rules() deny order = %+v, want declaration order", deny)
	}
}

func TestCompile_ErrorNamesPosition(t *testing.T) {
	_, err := Compile(&File{Deny: []Entry{{Shell: "ok*"}, {}}})
	if err == nil {
		t.Fatal("Compile() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "deny rule 2") {
		t.Errorf("error = %q, want deny rule position named", err)
	}
}
