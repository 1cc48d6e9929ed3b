// Package valgrind builds valgrind invocations for the server under test and
// parses the leak summary out of valgrind's log output.
package valgrind

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"
)

// DefaultBinary is the valgrind executable resolved via PATH.
const DefaultBinary = "valgrind"

// WrapCommand returns the valgrind command-line prefix the server command is
// appended to. The flag set matches what ft_irc defenses conventionally use:
// full leak checking, all leak kinds, origin tracking, fd tracking and
// unlimited error reporting, with output redirected to logFile.
func WrapCommand(binary, logFile string) []string {
	return []string{
		binary,
		"-s",
		"--trace-children=no",
		"--leak-check=full",
		"--show-leak-kinds=all",
		"--track-origins=yes",
		"--track-fds=yes",
		"--error-limit=no",
		fmt.Sprintf("--log-file=%s", logFile),
	}
}

// Probe verifies the valgrind binary is invocable by running its version
// command. A failed probe means valgrind runs must not be attempted.
func Probe(ctx context.Context, binary string) error {
	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return errors.Wrapf(err, "probing %s", binary)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(out), []byte("valgrind")) {
		return errors.Errorf("unexpected version output from %s: %q", binary, bytes.TrimSpace(out))
	}
	return nil
}
