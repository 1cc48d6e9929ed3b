package valgrind

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Report holds the counters extracted from a valgrind leak summary.
// Counters absent from the log are zero: valgrind omits zero-valued
// sections, so absence means nothing was reported.
type Report struct {
	DefinitelyLost int64 // bytes
	IndirectlyLost int64 // bytes
	PossiblyLost   int64 // bytes
	StillReachable int64 // bytes
	OpenFDs        int64
	Errors         int64
}

// HasLeaks returns true if valgrind reported definitely or indirectly lost bytes.
func (r *Report) HasLeaks() bool {
	return r.DefinitelyLost > 0 || r.IndirectlyLost > 0
}

var (
	definitelyLostRe = regexp.MustCompile(`definitely lost: *([0-9,]+) bytes`)
	indirectlyLostRe = regexp.MustCompile(`indirectly lost: *([0-9,]+) bytes`)
	possiblyLostRe   = regexp.MustCompile(`possibly lost: *([0-9,]+) bytes`)
	stillReachableRe = regexp.MustCompile(`still reachable: *([0-9,]+) bytes`)
	openFDsRe        = regexp.MustCompile(`Open file descriptor.*: *([0-9]+)`)
	errorSummaryRe   = regexp.MustCompile(`ERROR SUMMARY: *([0-9,]+) errors`)
)

// Parse extracts the leak summary counters from valgrind log text. It is a
// pure function: tolerant of arbitrary surrounding text, first match wins
// (valgrind emits one summary block per process), thousands separators are
// ignored.
func Parse(text string) *Report {
	return &Report{
		DefinitelyLost: extract(definitelyLostRe, text),
		IndirectlyLost: extract(indirectlyLostRe, text),
		PossiblyLost:   extract(possiblyLostRe, text),
		StillReachable: extract(stillReachableRe, text),
		OpenFDs:        extract(openFDsRe, text),
		Errors:         extract(errorSummaryRe, text),
	}
}

func extract(re *regexp.Regexp, text string) int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Locate finds and parses a valgrind log. The expected path is tried first;
// if it does not exist, fallbackDir is scanned for valgrind*.log files in
// sorted order and the first one found is parsed. Returns the report and the
// path it was parsed from, or (nil, "") when no report could be located.
// A missing report is a soft condition, not an error.
func Locate(expected, fallbackDir string) (*Report, string) {
	if expected != "" {
		if text, err := os.ReadFile(expected); err == nil {
			return Parse(string(text)), expected
		}
	}
	matches, err := filepath.Glob(filepath.Join(fallbackDir, "valgrind*.log"))
	if err != nil {
		return nil, ""
	}
	sort.Strings(matches)
	for _, path := range matches {
		if text, err := os.ReadFile(path); err == nil {
			return Parse(string(text)), path
		}
	}
	return nil, ""
}
