package cmd

import "fmt"

// ExitCodeError carries a specific process exit code from a command out
// to main. Commands return it instead of calling os.Exit directly so
// deferred cleanup still runs.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError creates an ExitCodeError with the given code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}
