package types

import (
	"time"

	"github.com/ft-irc/irc-acceptor/valgrind"
)

// SessionStatus represents the outcome of a test session
type SessionStatus string

const (
	SessionStatusPass    SessionStatus = "pass"    // Tester exited 0
	SessionStatusFail    SessionStatus = "fail"    // Tester ran but reported failures
	SessionStatusAborted SessionStatus = "aborted" // Server never became ready; tester not run
)

// SessionResult is the terminal artifact of a test session. It aggregates the
// tester outcome, the locations of the captured logs and, when valgrind was
// enabled, the parsed leak report.
type SessionResult struct {
	RunID          string
	Status         SessionStatus
	Port           int
	TesterExitCode int
	ServerLog      string
	TesterLog      string
	Valgrind       *valgrind.Report // nil when valgrind was disabled or no report was found
	Duration       time.Duration
}

// Passed returns true if the tester reported success.
func (r *SessionResult) Passed() bool {
	return r.Status == SessionStatusPass
}
