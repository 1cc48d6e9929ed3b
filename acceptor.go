// Package acceptor orchestrates acceptance test sessions against an IRC
// server binary: it launches the server, waits for it to listen, drives the
// external tester against it, captures logs, and optionally parses the
// valgrind leak summary.
package acceptor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ft-irc/irc-acceptor/types"
)

// Acceptor runs test sessions, once or on an interval.
type Acceptor struct {
	config    *Config
	version   string
	scheduler SessionScheduler

	mu     sync.Mutex
	result *types.SessionResult
}

// New creates an Acceptor from a validated config.
func New(config *Config, version string) (*Acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating acceptor with config",
		"binary", config.Binary,
		"tester", config.Tester,
		"port", config.Port,
		"valgrind", config.Valgrind,
		"outDir", config.OutDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	return &Acceptor{
		config:    config,
		version:   version,
		scheduler: NewSessionScheduler(config.RunInterval, config.RunOnce, config.Log),
	}, nil
}

// Run executes sessions until completion. In run-once mode it returns after
// the first session, with a TestFailureError when the tester failed so the
// CLI can map it to exit code 1. In continuous mode it blocks until the
// context is canceled, then shuts the scheduler down.
func (a *Acceptor) Run(ctx context.Context) error {
	a.config.Log.Info("Starting acceptor", "version", a.version)

	a.scheduler.RegisterCallback(func() error {
		return a.runSession(ctx)
	})

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	if a.config.RunOnce {
		a.config.Log.Info("Session completed, exiting (run-once mode)")
		result := a.Result()
		if result != nil && result.Status == types.SessionStatusFail {
			return NewTestFailureError(fmt.Sprintf("tester exited with code %d", result.TesterExitCode))
		}
		return nil
	}

	<-ctx.Done()
	a.config.Log.Info("Shutting down")
	_ = a.scheduler.Stop()

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.scheduler.WaitForShutdown(waitCtx)
}

// Result returns the most recent session result, or nil before the first
// session has finished.
func (a *Acceptor) Result() *types.SessionResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

func (a *Acceptor) setResult(result *types.SessionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = result
}
