package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ft-irc/irc-acceptor/types"
)

func testLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

// writeScript writes an executable shell script and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// groupAlive reports whether any process remains in the group.
func groupAlive(pgid int) bool {
	return unix.Kill(-pgid, 0) == nil
}

func TestStartMissingBinary(t *testing.T) {
	s := New(testLogger())
	err := s.Start(context.Background(), StartOptions{
		Binary:   filepath.Join(t.TempDir(), "no-such-server"),
		Port:     6667,
		Password: "pass",
		OutDir:   t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, types.IsExecutableNotFound(err))
	assert.False(t, s.Running())
}

func TestStartAndStop(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "server", "echo started\nwhile true; do sleep 1; done\n")
	outDir := filepath.Join(dir, "out")

	s := New(testLogger())
	require.NoError(t, s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6667,
		Password: "pass",
		OutDir:   outDir,
	}))
	require.True(t, s.Running())
	pgid := s.Pgid()
	require.NotZero(t, pgid)

	s.Stop()
	assert.False(t, s.Running())
	assert.False(t, groupAlive(pgid))

	// Give the shell a moment to have flushed before we read the log.
	logData, err := os.ReadFile(filepath.Join(outDir, ServerLogName))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "started")
}

func TestStopEscalatesToKill(t *testing.T) {
	dir := t.TempDir()
	// Ignore SIGINT so only the SIGKILL escalation can terminate the group.
	bin := writeScript(t, dir, "server", "trap '' INT\nwhile true; do sleep 1; done\n")

	s := New(testLogger())
	s.grace = 200 * time.Millisecond
	require.NoError(t, s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6667,
		Password: "pass",
		OutDir:   t.TempDir(),
	}))
	pgid := s.Pgid()

	start := time.Now()
	s.Stop()
	assert.False(t, s.Running())
	assert.False(t, groupAlive(pgid))
	// Bounded: one grace period before SIGKILL plus the reap wait.
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "server", "sleep 30\n")

	s := New(testLogger())
	require.NoError(t, s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6667,
		Password: "pass",
		OutDir:   t.TempDir(),
	}))

	s.Stop()
	require.False(t, s.Running())

	// Second stop must be a no-op, with no signal sent to a dead group.
	assert.NotPanics(t, func() { s.Stop() })
}

func TestStopWithoutStart(t *testing.T) {
	s := New(testLogger())
	assert.NotPanics(t, func() { s.Stop() })
	assert.False(t, s.Running())
}

func TestStartPassesEnvironment(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "server", `echo "port=$FT_IRC_PORT pass=$FT_IRC_PASS args=$1,$2"`+"\n")
	outDir := filepath.Join(dir, "out")

	s := New(testLogger())
	require.NoError(t, s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6697,
		Password: "sekret",
		OutDir:   outDir,
	}))

	// The script exits immediately; Stop just reaps it.
	time.Sleep(300 * time.Millisecond)
	s.Stop()

	logData, err := os.ReadFile(filepath.Join(outDir, ServerLogName))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "port=6697 pass=sekret args=6697,sekret")
}

func TestStartRejectsSecondServer(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "server", "sleep 30\n")

	s := New(testLogger())
	require.NoError(t, s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6667,
		Password: "pass",
		OutDir:   t.TempDir(),
	}))
	defer s.Stop()

	err := s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6668,
		Password: "pass",
		OutDir:   t.TempDir(),
	})
	require.Error(t, err)
}

func TestStartValgrindUnavailable(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "server", "sleep 30\n")

	// An empty PATH makes the valgrind probe fail regardless of the host.
	t.Setenv("PATH", t.TempDir())

	s := New(testLogger())
	err := s.Start(context.Background(), StartOptions{
		Binary:   bin,
		Port:     6667,
		Password: "pass",
		OutDir:   t.TempDir(),
		Valgrind: true,
	})
	require.Error(t, err)
	assert.True(t, types.IsDiagnosticToolError(err))
	assert.False(t, s.Running())
}
