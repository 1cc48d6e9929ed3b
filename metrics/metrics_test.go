package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ft-irc/irc-acceptor/types"
	"github.com/ft-irc/irc-acceptor/valgrind"
)

func TestRecordSession(t *testing.T) {
	RecordSession("run-1", types.SessionStatusPass, 0, 3*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(sessionResults.WithLabelValues("run-1", "pass")))
	assert.Equal(t, float64(3), testutil.ToFloat64(sessionDuration.WithLabelValues("run-1")))
	assert.Equal(t, float64(0), testutil.ToFloat64(testerExitCode.WithLabelValues("run-1")))
}

func TestRecordSessionRejectsInvalidResult(t *testing.T) {
	before := testutil.CollectAndCount(sessionResults)
	RecordSession("run-bad", types.SessionStatus("bogus"), 0, time.Second)
	assert.Equal(t, before, testutil.CollectAndCount(sessionResults))
}

func TestRecordValgrind(t *testing.T) {
	RecordValgrind("run-2", &valgrind.Report{
		DefinitelyLost: 1024,
		IndirectlyLost: 512,
		OpenFDs:        4,
		Errors:         3,
	})

	assert.Equal(t, float64(1024), testutil.ToFloat64(valgrindLostBytes.WithLabelValues("run-2", "definitely")))
	assert.Equal(t, float64(512), testutil.ToFloat64(valgrindLostBytes.WithLabelValues("run-2", "indirectly")))
	assert.Equal(t, float64(0), testutil.ToFloat64(valgrindLostBytes.WithLabelValues("run-2", "possibly")))
	assert.Equal(t, float64(4), testutil.ToFloat64(valgrindOpenFDs.WithLabelValues("run-2")))
	assert.Equal(t, float64(3), testutil.ToFloat64(valgrindErrors.WithLabelValues("run-2")))
}

func TestRecordValgrindNilReport(t *testing.T) {
	require.NotPanics(t, func() { RecordValgrind("run-3", nil) })
}

func TestErrToLabel(t *testing.T) {
	assert.Equal(t, "nil", errToLabel(nil))
	assert.Equal(t, "some_error_text", errToLabel(errors.New("some: error! text")))
}
