package errors

import (
	"fmt"
	"strings"
)

// OperationError represents an error that occurred during a bridge operation
type OperationError struct {
	Op  string // The operation being performed
	Err error  // The underlying error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// New creates a new OperationError
func New(op string, err error) *OperationError {
	return &OperationError{
		Op:  op,
		Err: err,
	}
}

// Is implements error matching for OperationError
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return e.Op == t.Op
}

// CommandError describes a failed invocation of the external git client.
// Args and the captured streams are expected to be redacted by the caller.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if out := e.Output(); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, out)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Output returns stdout and stderr joined, trimmed of surrounding whitespace.
func (e *CommandError) Output() string {
	var parts []string
	if s := strings.TrimSpace(e.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}
