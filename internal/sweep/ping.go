// Package sweep drives the measurement campaigns: network latency probes,
// ControlHub lifecycle around runs, and the depth and client sweeps.
package sweep

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
)

// Matches both Linux "rtt min/avg/max/mdev" and BSD "round-trip min/avg/max".
var pingAvgRe = regexp.MustCompile(`(?m)^(?:rtt|round-trip) min/avg/max[^=]*=\s*[\d.]+/([\d.]+)/`)

// PingLatency measures the average round-trip time to target in microseconds.
// A short warm-up ping primes ARP caches so the measured run isn't skewed by
// the first-packet penalty.
func PingLatency(ctx context.Context, target string, session exec.Session, log logger.Logger) (float64, error) {
	if log == nil {
		log = logger.Default()
	}

	opts := exec.Options{Session: session, Logger: log}

	if _, err := exec.Execute(ctx, fmt.Sprintf("ping -c 2 %s", target), opts); err != nil {
		return 0, err
	}

	res, err := exec.Execute(ctx, fmt.Sprintf("ping -c 10 %s", target), opts)
	if err != nil {
		return 0, err
	}

	m := pingAvgRe.FindStringSubmatch(res.Output)
	if m == nil {
		return 0, errors.New(errors.ErrParse,
			"No rtt summary in ping output for "+target,
			"Check the host resolves and responds to ICMP.")
	}
	avgMs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrParse,
			fmt.Sprintf("Bad rtt average %q in ping output", m[1]), "")
	}

	latencyUs := avgMs * 1000
	log.Info("Average ping latency to %s: %.1f us", target, latencyUs)
	return latencyUs, nil
}
