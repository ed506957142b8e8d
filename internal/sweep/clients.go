package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/internal/runner"
)

// ClientsConfig parameterizes a concurrent-clients sweep: how total
// throughput and broker load scale with the number of simultaneous readers.
type ClientsConfig struct {
	Targets     []string           // device URIs; clients are spread across them round-robin
	Clients     []int              // concurrent client counts to sweep
	Depth       int                // block depth per request, 32-bit words
	Session     exec.Session       // where the test clients run; nil means local
	BrokerProbe runner.ProbeTarget // broker processes to monitor; zero value disables
	Env         map[string]string
	Settle      time.Duration
	Interval    time.Duration
	Timeout     time.Duration
	Logger      logger.Logger
}

// ClientsPoint is one sweep point: n concurrent clients and what they achieved.
type ClientsPoint struct {
	Clients       int                 `yaml:"clients"`
	TotalGbps     float64             `yaml:"total_gbps"`
	PerClientGbps []float64           `yaml:"per_client_gbps"`
	Probes        []runner.ProbeStats `yaml:"probes"`
}

// ClientsResults holds every point of a clients sweep, in sweep order.
type ClientsResults struct {
	Depth  int            `yaml:"depth"`
	Points []ClientsPoint `yaml:"points"`
}

// Clients measures aggregate read bandwidth and broker resource usage as the
// number of concurrent test clients grows. Each point launches the full
// client batch through the parallel runner and monitors the local test
// processes plus the broker's.
func Clients(ctx context.Context, cfg ClientsConfig) (*ClientsResults, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No targets for the clients sweep",
			"Set 'targets' to at least one device URI.")
	}
	if len(cfg.Clients) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No client counts to sweep",
			"Set 'sweep.clients' to at least one count.")
	}

	// Monitor the test clients where they run, plus the broker if configured.
	probes := []runner.ProbeTarget{{Match: "PerfTester", Session: cfg.Session}}
	if cfg.BrokerProbe.Match != "" {
		probes = append(probes, cfg.BrokerProbe)
	}

	opts := []runner.Option{
		runner.WithEnv(cfg.Env),
		runner.WithTimeout(cfg.Timeout),
		runner.WithLogger(log),
	}
	if cfg.Settle > 0 {
		opts = append(opts, runner.WithSettle(cfg.Settle))
	}
	if cfg.Interval > 0 {
		opts = append(opts, runner.WithInterval(cfg.Interval))
	}
	r := runner.NewCommandRunner(probes, opts...)

	results := &ClientsResults{Depth: cfg.Depth}
	for _, n := range cfg.Clients {
		log.Info("Running %d concurrent client(s) against %d target(s)", n, len(cfg.Targets))

		cmds := make([]runner.Command, n)
		for i := 0; i < n; i++ {
			target := cfg.Targets[i%len(cfg.Targets)]
			cmds[i] = runner.Command{
				Cmd: fmt.Sprintf("PerfTester.exe -t BandwidthRx -b 0x2001 -w %d -p -i 1 -d %s",
					cfg.Depth, target),
				Session: cfg.Session,
			}
		}

		probeStats, cmdResults, err := r.Run(ctx, cmds)
		if err != nil {
			return nil, err
		}

		point := ClientsPoint{Clients: n, Probes: probeStats}
		for _, res := range cmdResults {
			meas, ok := res.Value.(exec.PerfMeasurement)
			if !ok {
				return nil, errors.New(errors.ErrParse,
					"Test binary output did not parse into a measurement",
					"Check the PerfTester version on the test PC.")
			}
			point.PerClientGbps = append(point.PerClientGbps, meas.BandwidthGbps)
			point.TotalGbps += meas.BandwidthGbps
		}
		results.Points = append(results.Points, point)
	}
	return results, nil
}
