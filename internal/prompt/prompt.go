// Package prompt provides the interactive prompts used by the init
// command, designed for testability with a mock implementation.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter is the interface the init command talks to: numbered option
// selection, yes/no confirmation, and hidden credential entry.
type Prompter interface {
	// Select displays a prompt with numbered options and returns the
	// zero-based index of the selected option. If the user presses Enter
	// without input, defaultIdx is returned.
	Select(prompt string, options []string, defaultIdx int) (int, error)

	// Confirm displays a yes/no prompt. Empty input returns defaultYes.
	Confirm(prompt string, defaultYes bool) (bool, error)

	// ReadSecret displays a prompt and reads a credential without echoing
	// it to the terminal.
	ReadSecret(prompt string) (string, error)
}

// Terminal implements Prompter against a real terminal.
type Terminal struct {
	In  *os.File
	Out io.Writer

	// Shared across prompts so piped answers to successive questions are
	// not lost to a discarded read buffer.
	reader *bufio.Reader
}

// NewTerminal creates a Terminal prompter reading from in (typically
// os.Stdin) and writing prompts to out.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out, reader: bufio.NewReader(in)}
}

// Select displays the prompt and options, then reads user input.
// Options are displayed as a numbered list (1-indexed for user display)
// with the default option marked.
func (t *Terminal) Select(prompt string, options []string, defaultIdx int) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options provided")
	}
	if defaultIdx < 0 || defaultIdx >= len(options) {
		return 0, fmt.Errorf("default index %d out of range [0, %d)", defaultIdx, len(options))
	}

	_, _ = fmt.Fprintln(t.Out, prompt)
	for i, opt := range options {
		suffix := ""
		if i == defaultIdx {
			suffix = " (default)"
		}
		_, _ = fmt.Fprintf(t.Out, "  %d. %s%s\n", i+1, opt, suffix)
	}
	_, _ = fmt.Fprintf(t.Out, "Enter selection [%d]: ", defaultIdx+1)

	input, err := t.readLine()
	if err != nil {
		return 0, err
	}
	if input == "" {
		return defaultIdx, nil
	}

	// User input is 1-indexed
	selection, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q: must be a number", input)
	}
	idx := selection - 1
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("selection %d out of range (1-%d)", selection, len(options))
	}
	return idx, nil
}

// Confirm displays the prompt and reads a y/n answer.
// Accepts "y"/"yes" as true and "n"/"no" as false, case-insensitively.
func (t *Terminal) Confirm(prompt string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	_, _ = fmt.Fprintf(t.Out, "%s %s: ", prompt, hint)

	input, err := t.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid input %q: expected y/n", input)
}

// ReadSecret displays the prompt and reads input with echoing disabled.
// When In is not a terminal (piped input), it falls back to a plain line
// read so init stays scriptable.
func (t *Terminal) ReadSecret(prompt string) (string, error) {
	_, _ = fmt.Fprint(t.Out, prompt)

	fd := int(t.In.Fd())
	if !term.IsTerminal(fd) {
		return t.readLine()
	}

	secret, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	// ReadPassword doesn't echo the user's newline
	_, _ = fmt.Fprintln(t.Out)
	return string(secret), nil
}

func (t *Terminal) readLine() (string, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Mock implements Prompter for testing, returning pre-configured
// responses and recording every prompt it was shown.
type Mock struct {
	// Queued responses, consumed in order per method. When a queue runs
	// out, Select and Confirm return the caller's default and ReadSecret
	// returns "".
	Selections []int
	Confirms   []bool
	Secrets    []string

	// Err, if set, is returned by every call.
	Err error

	// Recorded prompts for verification.
	SelectCalls  []string
	ConfirmCalls []string
	SecretCalls  []string

	selectIdx  int
	confirmIdx int
	secretIdx  int
}

func (m *Mock) Select(prompt string, options []string, defaultIdx int) (int, error) {
	m.SelectCalls = append(m.SelectCalls, prompt)
	if m.Err != nil {
		return 0, m.Err
	}
	if m.selectIdx < len(m.Selections) {
		idx := m.Selections[m.selectIdx]
		m.selectIdx++
		return idx, nil
	}
	return defaultIdx, nil
}

func (m *Mock) Confirm(prompt string, defaultYes bool) (bool, error) {
	m.ConfirmCalls = append(m.ConfirmCalls, prompt)
	if m.Err != nil {
		return false, m.Err
	}
	if m.confirmIdx < len(m.Confirms) {
		v := m.Confirms[m.confirmIdx]
		m.confirmIdx++
		return v, nil
	}
	return defaultYes, nil
}

func (m *Mock) ReadSecret(prompt string) (string, error) {
	m.SecretCalls = append(m.SecretCalls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.secretIdx < len(m.Secrets) {
		s := m.Secrets[m.secretIdx]
		m.secretIdx++
		return s, nil
	}
	return "", nil
}
