// Package tester invokes the external IRC protocol tester against a running
// server and captures its combined output to a log file. The tester's
// internal test logic is out of scope; only its exit code matters here.
package tester

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/ft-irc/irc-acceptor/types"
)

const (
	// LogName is the tester output log filename within the output directory.
	LogName = "tester.log"

	VersionV1 = "v1"
	VersionV2 = "v2"

	scriptV1 = "irc_super_tester.py"
	scriptV2 = "irc_super_tester_v2.py"
)

// Config selects and parameterizes a tester invocation.
type Config struct {
	Version  string   // VersionV1 or VersionV2
	Dir      string   // Directory containing the tester scripts
	Python   string   // Python interpreter used to run the tester
	Host     string   // Server host, normally 127.0.0.1
	Port     int      // Server port
	Password string   // Server credential
	Verbose  bool     // Pass --verbose to the tester
	Only     []string // Restrict the tester to these named tests
	OutDir   string   // Directory receiving tester.log
	Log      log.Logger
}

// ScriptPath resolves the tester script for the configured version.
func (c Config) ScriptPath() (string, error) {
	var name string
	switch c.Version {
	case VersionV1:
		name = scriptV1
	case VersionV2, "":
		name = scriptV2
	default:
		return "", errors.Errorf("unknown tester version %q", c.Version)
	}
	return filepath.Abs(filepath.Join(c.Dir, name))
}

// Run blocks until the tester exits and returns its exit code together with
// the path of the captured log. There is no harness-side timeout: the tester
// bounds its own runtime. Context cancellation (user interrupt) kills the
// tester process. A nonzero tester exit is not an error here; the
// orchestrator maps it to the session outcome.
func Run(ctx context.Context, cfg Config) (int, string, error) {
	script, err := cfg.ScriptPath()
	if err != nil {
		return 0, "", err
	}
	if _, err := os.Stat(script); err != nil {
		return 0, "", &types.ExecutableNotFoundError{Path: script}
	}

	logPath := filepath.Join(cfg.OutDir, LogName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, "", errors.Wrapf(err, "opening tester log %q", logPath)
	}
	defer logFile.Close()

	args := []string{
		script,
		"--host", cfg.Host,
		"--port", strconv.Itoa(cfg.Port),
		"--password", cfg.Password,
	}
	if cfg.Verbose {
		args = append(args, "--verbose")
	}
	if len(cfg.Only) > 0 {
		args = append(args, "--only")
		args = append(args, cfg.Only...)
	}

	//#nosec:G204 // running the user-selected tester is the whole point
	cmd := exec.CommandContext(ctx, cfg.Python, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	cfg.Log.Info("Running tester", "command", cmd.String(), "log", logPath)
	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), logPath, nil
		}
		return 0, logPath, errors.Wrap(err, "running tester")
	}
	return 0, logPath, nil
}
