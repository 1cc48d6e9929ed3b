package types

import (
	"errors"
	"fmt"
	"time"
)

// ExecutableNotFoundError indicates that the server binary or tester script
// does not exist on disk. It is always raised before anything is spawned.
type ExecutableNotFoundError struct {
	Path string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable not found: %s", e.Path)
}

// IsExecutableNotFound checks if the error is or wraps an ExecutableNotFoundError
func IsExecutableNotFound(err error) bool {
	var notFoundErr *ExecutableNotFoundError
	return err != nil && errors.As(err, &notFoundErr)
}

// DiagnosticToolError indicates that valgrind was requested but is not
// invocable. The session must not silently degrade to a non-valgrind run.
type DiagnosticToolError struct {
	Err error
}

func (e *DiagnosticToolError) Error() string {
	return fmt.Sprintf("valgrind unavailable: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *DiagnosticToolError) Unwrap() error {
	return e.Err
}

// IsDiagnosticToolError checks if the error is or wraps a DiagnosticToolError
func IsDiagnosticToolError(err error) bool {
	var toolErr *DiagnosticToolError
	return err != nil && errors.As(err, &toolErr)
}

// ReadinessTimeoutError indicates the server process was spawned but never
// accepted a TCP connection within the configured startup timeout.
type ReadinessTimeoutError struct {
	Port    int
	Timeout time.Duration
}

func (e *ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("server did not start listening on port %d within %s", e.Port, e.Timeout)
}

// IsReadinessTimeout checks if the error is or wraps a ReadinessTimeoutError
func IsReadinessTimeout(err error) bool {
	var timeoutErr *ReadinessTimeoutError
	return err != nil && errors.As(err, &timeoutErr)
}
