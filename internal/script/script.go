// Package script detects "interpreter runs a file" command shapes and
// reads a bounded prefix of the referenced file for review. Reads are
// size- and time-limited so a slow or adversarial filesystem path (FIFO,
// network mount) cannot stall a decision.
package script

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/xdg/toolgate/internal/pathutil"
)

// MaxScriptBytes is the ceiling on how much of a script is read.
const MaxScriptBytes = 5120

// DefaultReadTimeout bounds how long a single file read may take.
const DefaultReadTimeout = 2 * time.Second

// Reference describes a script file a command would execute.
type Reference struct {
	Interpreter string
	Path        string // resolved absolute path
	Content     []byte // at most the read limit
	Truncated   bool
	Unreadable  bool // could not be opened or read; treat as suspicious
}

// Extractor finds script references in shell commands. Limit and
// Timeout may be adjusted before first use; the zero Extractor is not
// usable, construct with NewExtractor.
type Extractor struct {
	Limit   int
	Timeout time.Duration
}

// NewExtractor returns an Extractor with the default read bounds.
func NewExtractor() *Extractor {
	return &Extractor{Limit: MaxScriptBytes, Timeout: DefaultReadTimeout}
}

// Detect scans a command for an interpreter-plus-file shape and loads
// the referenced file. Compound commands are scanned segment by
// segment and the first match wins. Returns nil when no segment has
// the shape. A matched file that cannot be read still returns a
// Reference, with Unreadable set.
func (e *Extractor) Detect(command, cwd string) *Reference {
	if command == "" {
		return nil
	}
	for _, seg := range splitCommands(command) {
		interp, file, ok := detectSegment(seg)
		if !ok {
			continue
		}
		ref := e.load(file, cwd)
		ref.Interpreter = interp
		return ref
	}
	return nil
}

// load resolves the file argument against cwd and reads its prefix.
func (e *Extractor) load(file, cwd string) *Reference {
	abs := pathutil.ExpandHome(file)
	if !filepath.IsAbs(abs) {
		if cwd == "" {
			return &Reference{Path: file, Unreadable: true}
		}
		abs = filepath.Join(cwd, abs)
	}
	abs = filepath.Clean(abs)

	ref := &Reference{Path: abs}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		// A link that lexically sits in the working tree but points
		// out of it could launder the later path-zone check. Reject
		// rather than read the target.
		if cwd != "" && pathutil.WithinRoot(cwd, abs) && !pathutil.WithinRoot(resolveDir(cwd), resolved) {
			ref.Unreadable = true
			return ref
		}
		ref.Path = resolved
	}

	content, truncated, ok := e.readBounded(ref.Path)
	if !ok {
		ref.Unreadable = true
		return ref
	}
	ref.Content = content
	ref.Truncated = truncated
	return ref
}

// readBounded reads at most e.Limit bytes of a regular file, giving up
// after e.Timeout. ok is false when the file is missing, not regular,
// or the read failed or timed out.
func (e *Extractor) readBounded(path string) (content []byte, truncated, ok bool) {
	f, err := os.OpenFile(path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, false, false
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return nil, false, false
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, e.Limit+1)
		n, err := io.ReadFull(f, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = nil
		}
		ch <- result{buf[:n], err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, false, false
		}
		if len(res.data) > e.Limit {
			return res.data[:e.Limit], true, true
		}
		return res.data, false, true
	case <-time.After(e.Timeout):
		// The reader goroutine is abandoned; closing the file makes a
		// blocked read return.
		return nil, false, false
	}
}

func resolveDir(dir string) string {
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		return r
	}
	return dir
}

// interpreters are command names whose first file argument is a script.
var interpreters = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "ksh": true, "dash": true,
	"python": true, "ruby": true, "perl": true, "php": true, "lua": true,
	"node": true, "nodejs": true,
}

// inlineFlags make the interpreter run inline code or a module instead
// of a file argument.
var inlineFlags = map[string]bool{
	"-c": true, "-e": true, "-m": true, "-r": true, "--eval": true,
}

// wrappers are prefix commands that defer to the real command.
var wrappers = map[string]bool{
	"sudo": true, "env": true, "nohup": true, "time": true, "exec": true,
}

// detectSegment finds an interpreter token and its file argument in a
// single command segment, skipping environment assignments, wrapper
// commands, and flags.
func detectSegment(seg string) (interp, file string, ok bool) {
	toks := fields(seg)
	j := 0
	for j < len(toks) && (wrappers[toks[j]] || isAssignment(toks[j])) {
		j++
	}
	if j >= len(toks) || !isInterpreter(toks[j]) {
		return "", "", false
	}
	interp = filepath.Base(toks[j])
	for _, t := range toks[j+1:] {
		if inlineFlags[t] {
			return "", "", false
		}
		if strings.ContainsAny(t, "<>") {
			break
		}
		if strings.HasPrefix(t, "-") {
			continue
		}
		return interp, t, true
	}
	return "", "", false
}

func isInterpreter(tok string) bool {
	base := filepath.Base(tok)
	if interpreters[base] {
		return true
	}
	// Versioned names like python3 or python3.12.
	if rest, found := strings.CutPrefix(base, "python"); found {
		for _, r := range rest {
			if r != '.' && (r < '0' || r > '9') {
				return false
			}
		}
		return true
	}
	return false
}

// isAssignment reports whether a token is a NAME=value environment
// assignment prefix.
func isAssignment(tok string) bool {
	idx := strings.IndexByte(tok, '=')
	if idx <= 0 {
		return false
	}
	for _, r := range tok[:idx] {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// splitCommands splits a shell command on &&, ||, ;, | and newlines,
// ignoring separators inside single or double quotes.
func splitCommands(command string) []string {
	var (
		parts []string
		cur   strings.Builder
		quote rune
	)
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == '&' || r == '|':
			if i+1 < len(runes) && runes[i+1] == r {
				i++
			}
			parts = append(parts, cur.String())
			cur.Reset()
		case r == ';' || r == '\n':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// fields splits a segment on whitespace, honoring and stripping single
// and double quotes so quoted filenames stay one token.
func fields(seg string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	for _, r := range seg {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
