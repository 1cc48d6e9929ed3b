package acceptor

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ft-irc/irc-acceptor/types"
)

// printSummary renders a one-session result table to stdout and logs
// advisory warnings for memory leaks and leaked file descriptors. The
// advisories never change the session outcome; only the tester does.
func (a *Acceptor) printSummary(result *types.SessionResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("IRC Acceptance Session (%s)", formatDuration(result.Duration)))

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	t.AppendRow(table.Row{"Status", getResultString(result.Status)})
	t.AppendRow(table.Row{"Tester exit code", strconv.Itoa(result.TesterExitCode)})
	t.AppendRow(table.Row{"Port", strconv.Itoa(result.Port)})
	t.AppendRow(table.Row{"Server log", orDash(result.ServerLog)})
	t.AppendRow(table.Row{"Tester log", orDash(result.TesterLog)})
	t.AppendSeparator()

	if result.Valgrind != nil {
		v := result.Valgrind
		t.AppendRow(table.Row{"Definitely lost", fmt.Sprintf("%d bytes", v.DefinitelyLost)})
		t.AppendRow(table.Row{"Indirectly lost", fmt.Sprintf("%d bytes", v.IndirectlyLost)})
		t.AppendRow(table.Row{"Possibly lost", fmt.Sprintf("%d bytes", v.PossiblyLost)})
		t.AppendRow(table.Row{"Still reachable", fmt.Sprintf("%d bytes", v.StillReachable)})
		t.AppendRow(table.Row{"Open file descriptors", strconv.FormatInt(v.OpenFDs, 10)})
		t.AppendRow(table.Row{"Valgrind errors", strconv.FormatInt(v.Errors, 10)})
	} else {
		t.AppendRow(table.Row{"Valgrind", "(not enabled)"})
	}

	if result.Passed() {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	if !text.ANSICodesSupported {
		t.SetStyle(table.StyleLight)
	}

	t.Render()

	if result.Valgrind != nil {
		if result.Valgrind.HasLeaks() {
			a.config.Log.Warn("Valgrind reported memory leaks",
				"definitely_lost", result.Valgrind.DefinitelyLost,
				"indirectly_lost", result.Valgrind.IndirectlyLost,
				"possibly_lost", result.Valgrind.PossiblyLost)
		}
		if result.Valgrind.OpenFDs > 0 {
			a.config.Log.Warn("Valgrind reported open file descriptors at exit",
				"open_fds", result.Valgrind.OpenFDs)
		}
	}
}

// getResultString returns a symbol-prefixed string for the session status.
func getResultString(status types.SessionStatus) string {
	switch status {
	case types.SessionStatusPass:
		return "✓ pass"
	case types.SessionStatusAborted:
		return "- aborted"
	default:
		return "✗ fail"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration renders a duration as seconds with one decimal place.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
