package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/internal/sweep"
)

var pingCmd = &cobra.Command{
	Use:   "ping <host>",
	Short: "Measure average network round-trip latency to a host",
	Long: `Ping a host and report the average round-trip time in microseconds.
Useful as a baseline before interpreting depth-sweep latencies.

Examples:
  perfsuite ping board1
  perfsuite ping 10.0.0.2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		us, err := sweep.PingLatency(ctx, args[0], nil, logger.NewEnvLogger("[ping]"))
		if err != nil {
			return err
		}
		fmt.Printf("%s: %.1f us average round-trip\n", args[0], us)
		return nil
	},
}
