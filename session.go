package acceptor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ft-irc/irc-acceptor/metrics"
	"github.com/ft-irc/irc-acceptor/probe"
	"github.com/ft-irc/irc-acceptor/supervisor"
	"github.com/ft-irc/irc-acceptor/tester"
	"github.com/ft-irc/irc-acceptor/types"
	"github.com/ft-irc/irc-acceptor/valgrind"
)

// runSession executes one complete test session:
// resolve port → start server → wait for readiness → run tester →
// stop server → collect valgrind report → aggregate result.
// The server never outlives the session: every failure path stops the
// process group before returning.
func (a *Acceptor) runSession(ctx context.Context) error {
	cfg := a.config
	runID := uuid.New().String()
	start := time.Now()
	logger := cfg.Log.New("run_id", runID)

	port := cfg.Port
	if port == 0 {
		p, err := probe.FreePort()
		if err != nil {
			metrics.RecordErrorDetails("port allocation failed", err)
			return NewRuntimeError(err)
		}
		port = p
	}
	logger.Info("Using port", "port", port)

	aborted := func(err error) error {
		a.setResult(&types.SessionResult{
			RunID:          runID,
			Status:         types.SessionStatusAborted,
			Port:           port,
			TesterExitCode: -1,
			Duration:       time.Since(start),
		})
		metrics.RecordSession(runID, types.SessionStatusAborted, -1, time.Since(start))
		metrics.RecordErrorDetails("session aborted", err)
		return NewRuntimeError(err)
	}

	sup := supervisor.New(logger)
	if err := sup.Start(ctx, supervisor.StartOptions{
		Binary:   cfg.Binary,
		Port:     port,
		Password: cfg.Password,
		OutDir:   cfg.OutDir,
		Valgrind: cfg.Valgrind,
	}); err != nil {
		logger.Error("Failed to start server", "error", err)
		sup.Stop() // clears any partial handle
		return aborted(err)
	}

	if !probe.WaitForListen(ctx, port, cfg.Timeout) {
		err := &types.ReadinessTimeoutError{Port: port, Timeout: cfg.Timeout}
		logger.Error("Server did not start listening in time", "timeout", cfg.Timeout)
		sup.Stop()
		return aborted(err)
	}
	logger.Info("Server is listening", "port", port)

	var (
		testerExit int
		testerLog  string
		runErr     error
	)
	func() {
		// Stop in a deferred call so the server is terminated even if the
		// tester invocation fails.
		defer sup.Stop()
		testerExit, testerLog, runErr = tester.Run(ctx, tester.Config{
			Version:  cfg.Tester,
			Dir:      cfg.TesterDir,
			Python:   cfg.Python,
			Host:     "127.0.0.1",
			Port:     port,
			Password: cfg.Password,
			Verbose:  cfg.Verbose,
			Only:     cfg.Only,
			OutDir:   cfg.OutDir,
			Log:      logger,
		})
	}()
	if runErr != nil {
		logger.Error("Failed to run tester", "error", runErr)
		return aborted(runErr)
	}

	var report *valgrind.Report
	if cfg.Valgrind {
		var reportPath string
		report, reportPath = valgrind.Locate(sup.ValgrindLogPath(), cfg.OutDir)
		if report == nil {
			// Diagnostics were requested but no report could be located.
			// Advisory only; the session outcome stays the tester's.
			logger.Warn("Valgrind was enabled but no report was found", "expected", sup.ValgrindLogPath())
		} else {
			logger.Info("Parsed valgrind report", "path", reportPath)
		}
	}

	status := types.SessionStatusPass
	if testerExit != 0 {
		status = types.SessionStatusFail
	}

	result := &types.SessionResult{
		RunID:          runID,
		Status:         status,
		Port:           port,
		TesterExitCode: testerExit,
		ServerLog:      sup.ServerLogPath(),
		TesterLog:      testerLog,
		Valgrind:       report,
		Duration:       time.Since(start),
	}
	a.setResult(result)

	a.printSummary(result)
	metrics.RecordSession(runID, status, testerExit, result.Duration)
	metrics.RecordValgrind(runID, report)

	logger.Info("Session completed", "status", status, "tester_exit", testerExit, "duration", result.Duration)
	return nil
}
