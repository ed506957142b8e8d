package exec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rileyhilliard/perfsuite/internal/errors"
)

// Parser transforms a command's combined output into a structured value.
// Pluggable per command via Options.Parser.
type Parser func(output string) (any, error)

// PerfMeasurement is the parsed result of one PerfTester run.
type PerfMeasurement struct {
	LatencyUs     float64 // latency per iteration, microseconds
	BandwidthGbps float64 // average bandwidth, Gbit/s
}

var (
	perfFreqRe = regexp.MustCompile(`(?m)^Test iteration frequency\s+=\s*([\d.]+)\s*Hz`)
	perfBwRe   = regexp.MustCompile(`(?m)^Average \S+ bandwidth\s+=\s*([\d.]+)\s*KB/s`)
)

// ParsePerfTester extracts per-iteration latency and average bandwidth from
// PerfTester output. Frequency in Hz becomes latency in µs; bandwidth in
// KB/s becomes Gbit/s (1 Gbit/s = 125e3 KB/s).
func ParsePerfTester(output string) (any, error) {
	freqMatch := perfFreqRe.FindStringSubmatch(output)
	if freqMatch == nil {
		return nil, errors.New(errors.ErrParse,
			"No iteration frequency in PerfTester output",
			"Check the test binary ran to completion; rerun with PERFSUITE_DEBUG=1 to see raw output.")
	}
	freq, err := strconv.ParseFloat(freqMatch[1], 64)
	if err != nil || freq == 0 {
		return nil, errors.WrapWithCode(err, errors.ErrParse,
			fmt.Sprintf("Bad iteration frequency %q in PerfTester output", freqMatch[1]),
			"")
	}

	bwMatch := perfBwRe.FindStringSubmatch(output)
	if bwMatch == nil {
		return nil, errors.New(errors.ErrParse,
			"No bandwidth figure in PerfTester output",
			"Check the test binary ran to completion; rerun with PERFSUITE_DEBUG=1 to see raw output.")
	}
	bw, err := strconv.ParseFloat(bwMatch[1], 64)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse,
			fmt.Sprintf("Bad bandwidth figure %q in PerfTester output", bwMatch[1]),
			"")
	}

	return PerfMeasurement{
		LatencyUs:     1e6 / freq,
		BandwidthGbps: bw / 125e3,
	}, nil
}

// defaultParserFor picks the built-in parser for known test binaries.
// Returns nil for everything else.
func defaultParserFor(cmd string) Parser {
	if strings.HasPrefix(cmd, "PerfTester.exe") || strings.HasPrefix(cmd, "perf_tester.escript") {
		return ParsePerfTester
	}
	return nil
}
