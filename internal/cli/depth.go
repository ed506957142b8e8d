package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/internal/report"
	"github.com/rileyhilliard/perfsuite/internal/sweep"
)

var depthCmd = &cobra.Command{
	Use:   "depth",
	Short: "Measure latency and bandwidth vs transfer block depth",
	Long: `Sweep the configured block depths against every target device,
measuring per-iteration latency and derived bandwidth in both directions.

If a ControlHub host is configured, the broker is started before the sweep
and stopped afterwards. Results are written to the configured output file
and summarized on the terminal.

Examples:
  perfsuite depth
  perfsuite depth --config testbench.yaml -v`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Targets) == 0 {
			return errors.New(errors.ErrConfig,
				"No target devices configured",
				"Set 'targets' in your config to at least one device URI.")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := logger.NewEnvLogger("[depth]")

		session, err := controlHubSession(cfg)
		if err != nil {
			return err
		}
		if session != nil {
			defer session.Close()
			ch := sweep.NewControlHub(session, cfg.ControlHub.Env, log)
			if err := ch.Start(ctx); err != nil {
				return err
			}
			defer ch.Stop(ctx)
		}

		results := &report.Results{GeneratedAt: time.Now()}

		if session != nil {
			if us, err := sweep.PingLatency(ctx, session.Hostname, nil, log); err == nil {
				results.PingLatencyUs = us
			} else {
				log.Warn("Ping measurement failed: %v", err)
			}
		}

		for _, target := range cfg.Targets {
			res, err := sweep.Depth(ctx, sweep.DepthConfig{
				Target:     target,
				Depths:     cfg.Sweep.Depths,
				Iterations: cfg.Sweep.Iterations,
				Timeout:    cfg.Timeout,
				Logger:     log,
			})
			if err != nil {
				return err
			}
			results.Depth = append(results.Depth, res)
		}

		if err := report.WriteFile(cfg.Output.File, results); err != nil {
			return err
		}
		fmt.Println(report.Summary(results))
		fmt.Printf("Results written to %s\n", cfg.Output.File)
		return nil
	},
}
