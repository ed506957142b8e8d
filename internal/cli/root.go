// Package cli wires the cobra command tree for the perfsuite binary.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/perfsuite/internal/config"
	"github.com/rileyhilliard/perfsuite/internal/report"
	"github.com/rileyhilliard/perfsuite/pkg/sshutil"
)

// Persistent flags
var (
	configFlag  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "perfsuite",
	Short: "IPbus performance measurement suite",
	Long: `perfsuite runs performance sweeps against IPbus devices: it launches
test clients locally and over SSH, monitors CPU/memory of the packet broker
while batches run, and aggregates latency and bandwidth statistics with
bootstrap error estimates.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Errors have already been rendered by the commands'
// structured error types; here they just set the exit code.
func Execute() {
	err := rootCmd.Execute()
	sshutil.CloseAgent()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(depthCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves and validates the config, and applies global output
// settings.
func loadConfig() (*config.Config, error) {
	if verboseFlag {
		os.Setenv("PERFSUITE_DEBUG", "1")
	}

	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	report.ConfigureColor(cfg.Output.Color)
	return cfg, nil
}

// controlHubSession dials the configured broker host, or returns nil when
// the sweeps run without a remote broker.
func controlHubSession(cfg *config.Config) (*sshutil.Client, error) {
	if cfg.ControlHub.Host == "" {
		return nil, nil
	}
	return sshutil.Dial(cfg.ControlHub.Host, 10*time.Second)
}
