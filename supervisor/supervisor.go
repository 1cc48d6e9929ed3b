// Package supervisor owns the lifecycle of the IRC server process group:
// spawn with log redirection, then interrupt-grace-kill shutdown applied to
// the whole group. The server may fork helpers, so every signal goes to the
// process group rather than the leader pid.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/ft-irc/irc-acceptor/types"
	"github.com/ft-irc/irc-acceptor/valgrind"
)

const (
	// ServerLogName is the server output log filename within the output directory.
	ServerLogName = "server.log"

	// Environment variables carrying the session port and credential for
	// servers that prefer environment configuration over positional args.
	EnvPort     = "FT_IRC_PORT"
	EnvPassword = "FT_IRC_PASS"

	defaultGracePeriod = 2 * time.Second
)

// StartOptions configures a server launch.
type StartOptions struct {
	Binary   string   // Path to the server executable
	Port     int      // Port passed as the first positional argument
	Password string   // Credential passed as the second positional argument
	OutDir   string   // Directory receiving server.log (and the valgrind log)
	Valgrind bool     // Wrap the server in valgrind
	ExtraEnv []string // Additional KEY=VALUE entries merged into the environment
}

// Supervisor manages at most one live server process group at a time.
type Supervisor struct {
	log   log.Logger
	grace time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	pgid    int
	logFile *os.File
	waitCh  chan error

	serverLog   string
	valgrindLog string
}

// New creates a Supervisor.
func New(logger log.Logger) *Supervisor {
	return &Supervisor{
		log:   logger,
		grace: defaultGracePeriod,
	}
}

// Start validates and spawns the server as the leader of a new process
// group, with stdout and stderr redirected to server.log in the output
// directory. When valgrind is requested the tool is probed first and the
// launch fails if it is unavailable; there is no silent fallback. Start
// returns once the process is spawned; readiness is probed separately by
// the caller.
func (s *Supervisor) Start(ctx context.Context, opts StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return errors.New("server already running")
	}

	binary, err := filepath.Abs(opts.Binary)
	if err != nil {
		return errors.Wrapf(err, "resolving server binary path %q", opts.Binary)
	}
	if _, err := os.Stat(binary); err != nil {
		return &types.ExecutableNotFoundError{Path: binary}
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating output directory %q", opts.OutDir)
	}

	var argv []string
	if opts.Valgrind {
		if err := valgrind.Probe(ctx, valgrind.DefaultBinary); err != nil {
			return &types.DiagnosticToolError{Err: err}
		}
		// Timestamped log name so reports never collide across runs.
		s.valgrindLog = filepath.Join(opts.OutDir, fmt.Sprintf("valgrind.%d.log", time.Now().Unix()))
		argv = valgrind.WrapCommand(valgrind.DefaultBinary, s.valgrindLog)
	}
	argv = append(argv, binary, strconv.Itoa(opts.Port), opts.Password)

	s.serverLog = filepath.Join(opts.OutDir, ServerLogName)
	logFile, err := os.OpenFile(s.serverLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening server log %q", s.serverLog)
	}

	//#nosec:G204 // launching the user-supplied server binary is the whole point
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%d", EnvPort, opts.Port),
		fmt.Sprintf("%s=%s", EnvPassword, opts.Password),
	)
	cmd.Env = append(cmd.Env, opts.ExtraEnv...)
	// New process group so shutdown signals reach any helpers the server forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	s.log.Info("Starting server", "command", cmd.String(), "log", s.serverLog)
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return errors.Wrap(err, "starting server")
	}

	pgid, err := unix.Getpgid(cmd.Process.Pid)
	if err != nil {
		// Fall back to the leader pid; Setpgid makes them equal.
		pgid = cmd.Process.Pid
	}

	s.cmd = cmd
	s.pgid = pgid
	s.logFile = logFile
	s.waitCh = make(chan error, 1)
	go func(cmd *exec.Cmd, ch chan error) {
		ch <- cmd.Wait()
	}(cmd, s.waitCh)

	s.log.Debug("Server started", "pid", cmd.Process.Pid, "pgid", pgid)
	return nil
}

// Stop terminates the server process group: SIGINT to the group, a short
// grace period for a clean exit, then SIGKILL to the group with a bounded
// wait. It is idempotent and never returns an error; OS errors during
// shutdown (e.g. the group is already gone) are swallowed so the handle is
// always cleared.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return
	}

	defer func() {
		if s.logFile != nil {
			s.logFile.Close()
			s.logFile = nil
		}
		s.cmd = nil
		s.pgid = 0
		s.waitCh = nil
	}()

	s.log.Debug("Stopping server", "pgid", s.pgid)
	if err := unix.Kill(-s.pgid, unix.SIGINT); err != nil {
		s.log.Debug("SIGINT delivery failed", "pgid", s.pgid, "err", err)
	}

	select {
	case err := <-s.waitCh:
		s.log.Debug("Server exited after SIGINT", "err", err)
		return
	case <-time.After(s.grace):
	}

	s.log.Warn("Server did not exit after SIGINT, sending SIGKILL", "pgid", s.pgid)
	if err := unix.Kill(-s.pgid, unix.SIGKILL); err != nil {
		s.log.Debug("SIGKILL delivery failed", "pgid", s.pgid, "err", err)
	}

	select {
	case err := <-s.waitCh:
		s.log.Debug("Server exited after SIGKILL", "err", err)
	case <-time.After(s.grace):
		s.log.Error("Server still not reaped after SIGKILL", "pgid", s.pgid)
	}
}

// Running returns true while a server process is owned by the supervisor.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// Pgid returns the process-group id of the running server, or 0.
func (s *Supervisor) Pgid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pgid
}

// ServerLogPath returns the path of the redirected server output log.
func (s *Supervisor) ServerLogPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverLog
}

// ValgrindLogPath returns the expected valgrind log path for this run, or ""
// when valgrind was not requested.
func (s *Supervisor) ValgrindLogPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valgrindLog
}
