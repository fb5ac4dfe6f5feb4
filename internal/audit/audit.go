// Package audit provides structured logging of gate decisions.
// Log entries follow a key=value format suitable for parsing and analysis.
package audit

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// EventType is the recorded decision for one request.
type EventType string

const (
	EventAllow EventType = "ALLOW"
	EventDeny  EventType = "DENY"
	EventAsk   EventType = "ASK"
)

// Event is one decision audit entry.
type Event struct {
	// Timestamp is when the decision was made.
	Timestamp time.Time

	// Type is the decision (ALLOW, DENY, ASK).
	Type EventType

	// RequestID identifies the request across log and audit entries.
	RequestID string

	// Tool is the tool name from the request.
	Tool string

	// Action is a one-line summary of what the request would do
	// (command, target path, or URL).
	Action string

	// Stage is the pipeline stage that decided.
	Stage string

	// Reason is the decision's explanation, when one exists.
	Reason string

	// Duration is how long the decision took.
	Duration time.Duration
}

// Format returns the log entry as a formatted string.
// Format: 2024-01-15T14:32:05Z DECISION DENY id=9f3c tool=Bash action="rm -rf /" stage="hazard" reason="..." duration=1.2ms
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" DECISION ")
	b.WriteString(string(e.Type))

	b.WriteString(" id=")
	b.WriteString(e.RequestID)
	b.WriteString(" tool=")
	b.WriteString(e.Tool)
	b.WriteString(" action=")
	b.WriteString(quoteValue(e.Action))

	writeOptionalField(&b, "stage", e.Stage)
	writeOptionalField(&b, "reason", e.Reason)

	b.WriteString(" duration=")
	b.WriteString(formatDuration(e.Duration))

	return b.String()
}

// writeOptionalField appends " key=quoted_value" to the builder if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue returns a quoted string value.
// Values are always quoted for consistency and to handle spaces/special chars.
func quoteValue(s string) string {
	return fmt.Sprintf("%q", s)
}

// formatDuration formats a duration as a human-readable string (e.g., "2.3s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger creates a new audit logger that writes to the given writer.
// A nil Logger is safe to use and discards everything.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Log writes an event to the audit log.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := e.Format() + "\n"
	_, err := l.w.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogAllow logs an ALLOW decision.
func (l *Logger) LogAllow(id, tool, action, stage, reason string, d time.Duration) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventAllow,
		RequestID: id,
		Tool:      tool,
		Action:    action,
		Stage:     stage,
		Reason:    reason,
		Duration:  d,
	})
}

// LogDeny logs a DENY decision.
func (l *Logger) LogDeny(id, tool, action, stage, reason string, d time.Duration) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventDeny,
		RequestID: id,
		Tool:      tool,
		Action:    action,
		Stage:     stage,
		Reason:    reason,
		Duration:  d,
	})
}

// LogAsk logs an ASK decision (the gate stayed silent and the host
// fell back to its own prompt).
func (l *Logger) LogAsk(id, tool, action, stage, reason string, d time.Duration) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventAsk,
		RequestID: id,
		Tool:      tool,
		Action:    action,
		Stage:     stage,
		Reason:    reason,
		Duration:  d,
	})
}
