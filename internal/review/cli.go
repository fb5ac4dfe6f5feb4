package review

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// CLIOracle runs an external reviewer command, writing the prompt to
// its stdin and reading the verdict from its stdout. The subprocess is
// placed in its own process group so that on timeout the whole group is
// killed and nothing is left orphaned.
type CLIOracle struct {
	Command string
	Args    []string
}

// NewCLIOracle builds an oracle for the given argv.
func NewCLIOracle(command string, args []string) *CLIOracle {
	return &CLIOracle{Command: command, Args: args}
}

func (o *CLIOracle) Name() string { return "cli" }

func (o *CLIOracle) Review(ctx context.Context, prompt string) (string, error) {
	if o.Command == "" {
		return "", fmt.Errorf("reviewer command not configured")
	}

	cmd := exec.CommandContext(ctx, o.Command, o.Args...)
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid signals the process group, catching helpers the
		// reviewer spawned.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200]
		}
		if msg != "" {
			return "", fmt.Errorf("reviewer command: %w: %s", err, msg)
		}
		return "", fmt.Errorf("reviewer command: %w", err)
	}
	return stdout.String(), nil
}
