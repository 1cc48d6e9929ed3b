package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	acceptor "github.com/ft-irc/irc-acceptor"
	"github.com/ft-irc/irc-acceptor/exitcodes"
	"github.com/ft-irc/irc-acceptor/flags"
	"github.com/ft-irc/irc-acceptor/service"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "irc-acceptor"
	app.Usage = "IRC Server Acceptance Tester"
	app.Description = "irc-acceptor launches an IRC server binary, waits for it to accept connections, and drives an external protocol tester against it"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if acceptor.IsRuntimeError(err) {
				// Environment problems exit with code 2
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if acceptor.IsTestFailureError(err) {
				// Test failures exit with code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				// Unspecified errors default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(cctx *cli.Context) error {
	logger, err := newLogger(cctx.String(flags.LogLevel.Name))
	if err != nil {
		return acceptor.NewRuntimeError(err)
	}

	cfg, err := buildConfig(cctx, logger)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	a, err := acceptor.New(cfg, Version)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create acceptor: %w", err))
	}

	// The healthz and metrics servers only make sense when running as a
	// long-lived service.
	if !cfg.RunOnce {
		svc := service.New()
		svc.Start(cctx.Context)
		defer svc.Shutdown()
	}

	return a.Run(cctx.Context)
}

// buildConfig assembles the run configuration from flags, or from the
// interactive prompt when requested. Invoking the binary with no arguments
// also enters interactive mode, so a bare `irc-acceptor` works out of the box.
func buildConfig(cctx *cli.Context, logger log.Logger) (*acceptor.Config, error) {
	if cctx.Bool(flags.Interactive.Name) || cctx.NumFlags() == 0 {
		opts, err := promptOptions(os.Stdin, os.Stdout)
		if err != nil {
			return nil, err
		}
		return acceptor.NewConfigFromOptions(opts, logger)
	}
	return acceptor.NewConfig(cctx, logger)
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := levelFromString(level)
	if err != nil {
		return nil, err
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stdout, lvl, text.ANSICodesSupported)
	return log.NewLogger(handler), nil
}

func levelFromString(s string) (slog.Level, error) {
	switch s {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
