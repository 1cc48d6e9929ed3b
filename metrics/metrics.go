package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ft-irc/irc-acceptor/types"
	"github.com/ft-irc/irc-acceptor/valgrind"
)

const (
	MetricsNamespace = "ircacceptor"
)

var (
	Debug                bool = true
	validResults              = []types.SessionStatus{types.SessionStatusPass, types.SessionStatusFail, types.SessionStatusAborted}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "sessions_total",
		Help:      "Count of test sessions by result",
	}, []string{
		"result",
	})

	sessionResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_results",
		Help:      "Result of the test session",
	}, []string{
		"run_id",
		"result",
	})

	sessionDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_duration_seconds",
		Help:      "Duration of the test session",
	}, []string{
		"run_id",
	})

	testerExitCode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "tester_exit_code",
		Help:      "Exit code reported by the tester",
	}, []string{
		"run_id",
	})

	valgrindLostBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "valgrind_lost_bytes",
		Help:      "Bytes reported by valgrind per leak kind",
	}, []string{
		"run_id",
		"kind",
	})

	valgrindOpenFDs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "valgrind_open_fds",
		Help:      "Open file descriptors reported by valgrind at exit",
	}, []string{
		"run_id",
	})

	valgrindErrors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "valgrind_errors",
		Help:      "Error count from the valgrind error summary",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordSession(runID string, result types.SessionStatus, testerExit int, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordSession - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "sessions_total",
			"run_id", runID,
			"result", result,
			"tester_exit", testerExit,
			"duration", duration)
	}
	sessionsTotal.WithLabelValues(string(result)).Inc()
	sessionResults.WithLabelValues(runID, string(result)).Set(1)
	sessionDuration.WithLabelValues(runID).Set(duration.Seconds())
	testerExitCode.WithLabelValues(runID).Set(float64(testerExit))
}

func RecordValgrind(runID string, report *valgrind.Report) {
	if report == nil {
		return
	}
	valgrindLostBytes.WithLabelValues(runID, "definitely").Set(float64(report.DefinitelyLost))
	valgrindLostBytes.WithLabelValues(runID, "indirectly").Set(float64(report.IndirectlyLost))
	valgrindLostBytes.WithLabelValues(runID, "possibly").Set(float64(report.PossiblyLost))
	valgrindLostBytes.WithLabelValues(runID, "reachable").Set(float64(report.StillReachable))
	valgrindOpenFDs.WithLabelValues(runID).Set(float64(report.OpenFDs))
	valgrindErrors.WithLabelValues(runID).Set(float64(report.Errors))
}

func isValidResult(result types.SessionStatus) bool {
	return slices.Contains(validResults, result)
}
