// Package exitcodes defines the standard exit codes used by irc-acceptor.
package exitcodes

// Exit code constants used by irc-acceptor
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the tester reports all tests passed
// * TestFailure (1): Used when the tester ran but reported failures
// * RuntimeErr (2): Used when the server never became ready, or for other
//   setup and runtime errors (missing binary, valgrind unavailable, ...)
const (
	Success     = 0 // Tester passed
	TestFailure = 1 // Tester ran and reported failures
	RuntimeErr  = 2 // Server failed to start, or other runtime errors
)
