package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "IRC_ACCEPTOR"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Binary = &cli.StringFlag{
		Name:    "binary",
		Value:   "",
		EnvVars: prefixEnvVars("BINARY"),
		Usage:   "Path to the compiled IRC server binary (eg. './ircserv')",
	}
	Password = &cli.StringFlag{
		Name:    "password",
		Value:   "pass",
		EnvVars: prefixEnvVars("PASSWORD"),
		Usage:   "Server password (PASS) handed to the server and the tester",
	}
	Tester = &cli.StringFlag{
		Name:    "tester",
		Value:   "v2",
		EnvVars: prefixEnvVars("TESTER"),
		Usage:   "Which tester to run ('v1' or 'v2')",
	}
	TesterDir = &cli.StringFlag{
		Name:    "tester-dir",
		Value:   ".",
		EnvVars: prefixEnvVars("TESTER_DIR"),
		Usage:   "Directory containing the tester scripts",
	}
	Python = &cli.StringFlag{
		Name:    "python",
		Value:   "python3",
		EnvVars: prefixEnvVars("PYTHON"),
		Usage:   "Python interpreter used to run the tester",
	}
	Only = &cli.StringSliceFlag{
		Name:    "only",
		EnvVars: prefixEnvVars("ONLY"),
		Usage:   "Tester: run only these named tests",
	}
	Port = &cli.IntFlag{
		Name:    "port",
		Value:   0,
		EnvVars: prefixEnvVars("PORT"),
		Usage:   "Port to use (default: auto-assigned free port)",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   15 * time.Second,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "How long to wait for the server to start listening",
	}
	Valgrind = &cli.BoolFlag{
		Name:    "valgrind",
		Value:   false,
		EnvVars: prefixEnvVars("VALGRIND"),
		Usage:   "Run the server under valgrind and parse the leak summary",
	}
	OutDir = &cli.StringFlag{
		Name:    "out",
		Value:   "",
		EnvVars: prefixEnvVars("OUT"),
		Usage:   "Directory for captured logs (default: 'runs/<timestamp>')",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Value:   false,
		EnvVars: prefixEnvVars("VERBOSE"),
		Usage:   "Tester: verbose output",
	}
	Profile = &cli.StringFlag{
		Name:    "profile",
		Value:   "",
		EnvVars: prefixEnvVars("PROFILE"),
		Usage:   "Path to a YAML profile supplying defaults for this run",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between sessions (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Interactive = &cli.BoolFlag{
		Name:    "interactive",
		Value:   false,
		EnvVars: prefixEnvVars("INTERACTIVE"),
		Usage:   "Use interactive prompts to build the session configuration",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output (trace|debug|info|warn|error|crit)",
	}
)

// Binary is not in requiredFlags: it may come from a profile file or the
// interactive prompt instead; NewConfig enforces its presence afterwards.
var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Binary,
	Password,
	Tester,
	TesterDir,
	Python,
	Only,
	Port,
	Timeout,
	Valgrind,
	OutDir,
	Verbose,
	Profile,
	RunInterval,
	Interactive,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
