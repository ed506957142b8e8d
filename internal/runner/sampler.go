package runner

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
)

// Sampler reads one (cpu%, mem%) data point for a probe target. Implementations
// decide how the process table is queried; the runner only drives the schedule.
type Sampler interface {
	Sample(ctx context.Context, target ProbeTarget) (cpu, mem float64, err error)
}

const psCommand = "ps axo pcpu,pmem,args"

// psSampler queries the process table with ps, on the local host or through
// the target's session, and sums usage across every command line containing
// the target's match string. Filtering happens here rather than in a shell
// pipeline, so a tick with no matching processes reads as (0, 0) instead of
// a grep exit failure.
type psSampler struct {
	log logger.Logger
}

// NewPSSampler returns the default process-table sampler.
func NewPSSampler(log logger.Logger) Sampler {
	if log == nil {
		log = logger.Default()
	}
	return &psSampler{log: log}
}

func (s *psSampler) Sample(ctx context.Context, target ProbeTarget) (float64, float64, error) {
	res, err := exec.Execute(ctx, psCommand, exec.Options{
		Session: target.Session,
		Timeout: 10 * time.Second,
		Logger:  logger.Noop(),
	})
	if err != nil {
		return 0, 0, err
	}
	cpu, mem := sumProcessUsage(res.Output, target.Match)
	s.log.Debug("Probe %q: cpu=%.1f%% mem=%.1f%%", target.Match, cpu, mem)
	return cpu, mem, nil
}

// sumProcessUsage totals %CPU and %MEM over ps output lines whose command
// portion contains match. Lines that don't parse (the header, kernel thread
// oddities) are skipped.
func sumProcessUsage(output, match string) (cpu, mem float64) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		c, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		cmdline := strings.Join(fields[2:], " ")
		if cmdline == psCommand {
			// the sampling command itself, not a monitored process
			continue
		}
		if strings.Contains(cmdline, match) {
			cpu += c
			mem += m
		}
	}
	return cpu, mem
}
