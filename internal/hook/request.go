// Package hook implements the wire protocol between the host agent runtime
// and the decision engine: one JSON request read from stdin, at most one
// JSON verdict written to stdout. Writing no verdict at all is itself a
// signal; the host falls back to its interactive prompt (ask).
package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Request is one proposed tool execution as delivered by the host.
// Absent fields decode to their zero values.
type Request struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
	Cwd       string         `json:"cwd"`
}

// Decode reads a single request object from r.
func Decode(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("decode hook request: %w", err)
	}
	return req, nil
}

// Kind identifies the structural shape of a request's parameters.
type Kind int

const (
	// KindUnknown covers tools the engine has no structural knowledge of.
	// Unknown requests are handled conservatively and never auto-allow.
	KindUnknown Kind = iota
	// KindShell is a shell command execution.
	KindShell
	// KindFileWrite is a file creation or modification.
	KindFileWrite
	// KindFetch is an outbound network fetch.
	KindFetch
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindShell:
		return "shell"
	case KindFileWrite:
		return "file_write"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Action is the typed view of a request's loose parameter mapping.
// Tool is always the raw tool name; exactly the field matching Kind is
// populated beyond that.
type Action struct {
	Kind    Kind
	Tool    string
	Command string // KindShell
	Path    string // KindFileWrite
	URL     string // KindFetch
}

// Tool names mapped to parameter shapes. Tools not listed here parse as
// KindUnknown; MCP tools (mcp__server__name) always do.
var (
	shellTools = map[string]string{
		"Bash": "command",
	}
	writeTools = map[string]string{
		"Write":        "file_path",
		"Edit":         "file_path",
		"MultiEdit":    "file_path",
		"NotebookEdit": "notebook_path",
	}
	fetchTools = map[string]string{
		"WebFetch": "url",
	}
)

// ParseAction maps the request's tool_input payload onto a typed action.
func ParseAction(req Request) Action {
	if field, ok := shellTools[req.ToolName]; ok {
		return Action{Kind: KindShell, Tool: req.ToolName, Command: stringField(req.ToolInput, field)}
	}
	if field, ok := writeTools[req.ToolName]; ok {
		return Action{Kind: KindFileWrite, Tool: req.ToolName, Path: stringField(req.ToolInput, field)}
	}
	if field, ok := fetchTools[req.ToolName]; ok {
		return Action{Kind: KindFetch, Tool: req.ToolName, URL: stringField(req.ToolInput, field)}
	}
	return Action{Kind: KindUnknown, Tool: req.ToolName}
}

// InputForTool builds a minimal tool_input placing value in the field
// the named tool's kind reads. Tools with no known shape get an empty
// input, which parses as KindUnknown.
func InputForTool(tool, value string) map[string]any {
	if field, ok := shellTools[tool]; ok {
		return map[string]any{field: value}
	}
	if field, ok := writeTools[tool]; ok {
		return map[string]any{field: value}
	}
	if field, ok := fetchTools[tool]; ok {
		return map[string]any{field: value}
	}
	return map[string]any{}
}

// Summary returns a short human-readable description of the action,
// suitable for audit events and history entries.
func (a Action) Summary() string {
	switch a.Kind {
	case KindShell:
		return a.Command
	case KindFileWrite:
		return a.Path
	case KindFetch:
		return a.URL
	default:
		return ""
	}
}

// stringField extracts a string value from the loose parameter mapping,
// returning "" for missing keys or non-string values.
func stringField(input map[string]any, key string) string {
	if input == nil {
		return ""
	}
	if s, ok := input[key].(string); ok {
		return s
	}
	return ""
}
