//go:build e2e

package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// defaultRules is the rule file used by tests that do not need a
// special policy: one deny, one allow, everything else undecided.
const defaultRules = `deny:
  - shell: "git push --force*"
allow:
  - shell: "git status"
`

// gateEnv isolates one test run. Config, rules, logs, and history all
// live under a temp directory, reached by the binary through XDG
// environment overrides, so tests never touch the developer's real
// toolgate state.
type gateEnv struct {
	cfgDir   string
	stateDir string
	workDir  string
}

// newGateEnv writes a config and rule file under a temp directory and
// returns the environment for running the binary against them. An empty
// rulesYAML selects defaultRules. The reviewer backend is none, so
// anything the rules and hazard scan leave undecided resolves to ask.
func newGateEnv(t *testing.T, rulesYAML string) *gateEnv {
	t.Helper()

	base := t.TempDir()
	g := &gateEnv{
		cfgDir:   filepath.Join(base, "config", "toolgate"),
		stateDir: filepath.Join(base, "state", "toolgate"),
		workDir:  filepath.Join(base, "work"),
	}
	for _, d := range []string{g.cfgDir, g.stateDir, g.workDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			t.Fatal(err)
		}
	}

	cfg := fmt.Sprintf(`rules_file: %s
reviewer:
  backend: none
log:
  file: %s
history:
  enabled: true
  path: %s
`, g.rulesFile(), filepath.Join(g.stateDir, "toolgate.log"), filepath.Join(g.stateDir, "history.db"))
	if err := os.WriteFile(filepath.Join(g.cfgDir, "config.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	if rulesYAML == "" {
		rulesYAML = defaultRules
	}
	if err := os.WriteFile(g.rulesFile(), []byte(rulesYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return g
}

func (g *gateEnv) rulesFile() string {
	return filepath.Join(g.cfgDir, "rules.yaml")
}

// environ is the subprocess environment with XDG paths pointed at the
// test's directories.
func (g *gateEnv) environ() []string {
	return append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Dir(g.cfgDir),
		"XDG_STATE_HOME="+filepath.Dir(g.stateDir),
	)
}

// runGate runs the toolgate binary with the given arguments, feeding
// stdin and returning stdout, stderr, and the exit code. Failures to
// start the process at all are fatal; a non-zero exit is returned to
// the caller, since check uses exit codes to report verdicts.
func runGate(t *testing.T, g *gateEnv, stdin string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = g.workDir
	cmd.Env = g.environ()
	cmd.Stdin = strings.NewReader(stdin)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("run %s %v: %v", binaryPath, args, err)
		}
		exitCode = exitErr.ExitCode()
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// hookRequest builds the JSON for a Bash hook request.
func hookRequest(command, cwd string) string {
	return fmt.Sprintf(`{"tool_name":"Bash","tool_input":{"command":%q},"cwd":%q}`, command, cwd)
}
