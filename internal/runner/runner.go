// Package runner executes a batch of measurement commands in parallel while
// polling CPU/memory usage of designated processes until the first command
// finishes.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/internal/stats"
)

const (
	// DefaultSettle is how long the runner waits after launching the batch
	// before the first resource sample, giving the commands time to spin up.
	DefaultSettle = 400 * time.Millisecond

	// DefaultInterval is the pause between monitoring ticks.
	DefaultInterval = 50 * time.Millisecond
)

// Command is one unit of a batch. Session nil means local execution; Parser
// nil means auto-detection by command name.
type Command struct {
	Cmd     string
	Session exec.Session
	Parser  exec.Parser
}

// ProbeTarget names a set of processes to monitor while a batch runs: every
// process whose command line contains Match, on the host behind Session
// (nil for the local host).
type ProbeTarget struct {
	Match   string
	Session exec.Session
}

// ProbeStats is the averaged CPU/memory usage of one probe target over a
// batch run. Samples is the number of ticks that contributed; a target that
// never accumulated a usable sample reports zero means and Samples 0.
type ProbeStats struct {
	Match   string
	CPU     float64
	Mem     float64
	Samples int
}

// CommandRunner runs command batches with concurrent resource monitoring.
// Construct once per probe set and reuse across batches.
type CommandRunner struct {
	probes   []ProbeTarget
	sampler  Sampler
	settle   time.Duration
	interval time.Duration
	env      map[string]string
	timeout  time.Duration
	log      logger.Logger
}

// Option configures a CommandRunner.
type Option func(*CommandRunner)

// WithSampler swaps the probe sampling mechanism. Mostly for tests.
func WithSampler(s Sampler) Option {
	return func(r *CommandRunner) { r.sampler = s }
}

// WithSettle sets the delay before the first monitoring tick.
func WithSettle(d time.Duration) Option {
	return func(r *CommandRunner) { r.settle = d }
}

// WithInterval sets the pause between monitoring ticks.
func WithInterval(d time.Duration) Option {
	return func(r *CommandRunner) { r.interval = d }
}

// WithEnv sets environment exports applied to every remote command.
func WithEnv(env map[string]string) Option {
	return func(r *CommandRunner) { r.env = env }
}

// WithTimeout sets the hard timeout applied to every local command.
func WithTimeout(d time.Duration) Option {
	return func(r *CommandRunner) { r.timeout = d }
}

// WithLogger sets the logger used by the runner and its executions.
func WithLogger(l logger.Logger) Option {
	return func(r *CommandRunner) { r.log = l }
}

// NewCommandRunner creates a runner monitoring the given probe targets.
func NewCommandRunner(probes []ProbeTarget, opts ...Option) *CommandRunner {
	r := &CommandRunner{
		probes:   probes,
		settle:   DefaultSettle,
		interval: DefaultInterval,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sampler == nil {
		r.sampler = NewPSSampler(r.log)
	}
	return r
}

// slot holds one command's outcome. Each goroutine writes only its own slot,
// so no lock is needed.
type slot struct {
	res *exec.Result
	err error
}

type sample struct {
	cpu float64
	mem float64
}

// Run executes every command concurrently and polls the probe targets until
// the first command finishes. It returns averaged probe statistics and the
// per-command results in submission order.
//
// If any command failed, Run returns the first failure by batch index, but
// only after every goroutine has been joined. The caller never gets control
// back while batch commands are still running.
func (r *CommandRunner) Run(ctx context.Context, cmds []Command) ([]ProbeStats, []*exec.Result, error) {
	if len(cmds) == 0 {
		return nil, nil, errors.New(errors.ErrConfig,
			"Empty command batch",
			"Pass at least one command to Run.")
	}

	r.log.Debug("Launching batch of %d command(s), monitoring %d probe target(s)", len(cmds), len(r.probes))

	slots := make([]slot, len(cmds))
	firstDone := make(chan struct{})
	var once sync.Once

	var wg sync.WaitGroup
	for i, c := range cmds {
		wg.Add(1)
		go func(i int, c Command) {
			defer wg.Done()
			res, err := exec.Execute(ctx, c.Cmd, exec.Options{
				Session: c.Session,
				Parser:  c.Parser,
				Env:     r.env,
				Timeout: r.timeout,
				Logger:  r.log,
			})
			slots[i] = slot{res: res, err: err}
			once.Do(func() { close(firstDone) })
		}(i, c)
	}

	samples, monitorErr := r.monitor(ctx, firstDone)

	// The last tick races with batch completion, so its data is unreliable.
	for i := range samples {
		if n := len(samples[i]); n > 0 {
			samples[i] = samples[i][:n-1]
		}
	}

	// Join everything before reporting anything, success or failure.
	wg.Wait()

	for _, s := range slots {
		if s.err != nil {
			return nil, nil, s.err
		}
	}
	if monitorErr != nil {
		return nil, nil, monitorErr
	}

	probeStats := make([]ProbeStats, len(r.probes))
	for i, p := range r.probes {
		cpu := make([]float64, len(samples[i]))
		mem := make([]float64, len(samples[i]))
		for j, s := range samples[i] {
			cpu[j] = s.cpu
			mem[j] = s.mem
		}
		probeStats[i] = ProbeStats{
			Match:   p.Match,
			CPU:     stats.Mean(cpu),
			Mem:     stats.Mean(mem),
			Samples: len(samples[i]),
		}
	}

	results := make([]*exec.Result, len(slots))
	for i, s := range slots {
		results[i] = s.res
	}
	return probeStats, results, nil
}

// monitor polls every probe target each tick until the first batch command
// signals completion or the context is cancelled. A sampler error stops
// monitoring; the caller decides precedence after the join.
func (r *CommandRunner) monitor(ctx context.Context, firstDone <-chan struct{}) ([][]sample, error) {
	samples := make([][]sample, len(r.probes))

	select {
	case <-time.After(r.settle):
	case <-firstDone:
		return samples, nil
	case <-ctx.Done():
		return samples, nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		for i, p := range r.probes {
			cpu, mem, err := r.sampler.Sample(ctx, p)
			if err != nil {
				r.log.Warn("Sampling %q failed: %v", p.Match, err)
				return samples, err
			}
			samples[i] = append(samples[i], sample{cpu: cpu, mem: mem})
		}

		select {
		case <-firstDone:
			return samples, nil
		case <-ctx.Done():
			return samples, nil
		case <-ticker.C:
		}
	}
}
