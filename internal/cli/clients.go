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
	"github.com/rileyhilliard/perfsuite/internal/runner"
	"github.com/rileyhilliard/perfsuite/internal/sweep"
)

var clientsDepthFlag int

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Measure total bandwidth vs number of concurrent clients",
	Long: `Sweep the configured concurrent-client counts, spreading clients
across the target devices and monitoring broker CPU/memory while each
batch runs.

Examples:
  perfsuite clients
  perfsuite clients --depth 1000`,
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

		log := logger.NewEnvLogger("[clients]")

		session, err := controlHubSession(cfg)
		if err != nil {
			return err
		}

		swCfg := sweep.ClientsConfig{
			Targets:  cfg.Targets,
			Clients:  cfg.Sweep.Clients,
			Depth:    clientsDepthFlag,
			Env:      cfg.ControlHub.Env,
			Settle:   cfg.Monitor.Settle,
			Interval: cfg.Monitor.Interval,
			Timeout:  cfg.Timeout,
			Logger:   log,
		}
		if session != nil {
			defer session.Close()
			ch := sweep.NewControlHub(session, cfg.ControlHub.Env, log)
			if err := ch.Start(ctx); err != nil {
				return err
			}
			defer ch.Stop(ctx)

			swCfg.BrokerProbe = runner.ProbeTarget{
				Match:   cfg.ControlHub.ProcessMatch,
				Session: session,
			}
		}

		res, err := sweep.Clients(ctx, swCfg)
		if err != nil {
			return err
		}

		results := &report.Results{GeneratedAt: time.Now(), Clients: res}
		if err := report.WriteFile(cfg.Output.File, results); err != nil {
			return err
		}
		fmt.Println(report.Summary(results))
		fmt.Printf("Results written to %s\n", cfg.Output.File)
		return nil
	},
}

func init() {
	clientsCmd.Flags().IntVar(&clientsDepthFlag, "depth", 300, "block depth per request (32-bit words)")
}
