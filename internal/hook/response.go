package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response is the outbound verdict object. An ask outcome is represented
// by writing no response at all, so there is no ask constructor here.
type Response struct {
	Decision string `json:"decision"`
	Message  string `json:"message,omitempty"`
}

// WriteAllow emits the allow verdict to w.
func WriteAllow(w io.Writer) error {
	return writeResponse(w, Response{Decision: "allow"})
}

// WriteDeny emits the deny verdict with a user-facing message to w.
func WriteDeny(w io.Writer, message string) error {
	return writeResponse(w, Response{Decision: "deny", Message: message})
}

func writeResponse(w io.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}
	return nil
}
