package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/perfsuite/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but perfsuite only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest perfsuite release.")
	}

	if cfg.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			"'timeout' must be a positive duration",
			"Use a value like '60s' in the 'timeout' field.")
	}

	if cfg.Monitor.Interval <= 0 {
		return errors.New(errors.ErrConfig,
			"'monitor.interval' must be a positive duration",
			"Use a value like '50ms'.")
	}
	if cfg.Monitor.Settle < 0 {
		return errors.New(errors.ErrConfig,
			"'monitor.settle' cannot be negative",
			"Use a value like '400ms', or 0 to sample immediately.")
	}

	if cfg.ControlHub.ProcessMatch != "" && strings.ContainsAny(cfg.ControlHub.ProcessMatch, " \t") {
		return errors.New(errors.ErrConfig,
			"'controlhub.process_match' cannot contain whitespace",
			"Use a single command-line substring, like 'beam'.")
	}

	for _, d := range cfg.Sweep.Depths {
		if d <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Sweep depth %d is not positive", d),
				"Depths are transfer block sizes in 32-bit words; use values >= 1.")
		}
	}

	for _, c := range cfg.Sweep.Clients {
		if c <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Client count %d is not positive", c),
				"Use client counts >= 1.")
		}
	}

	if cfg.Sweep.Iterations <= 0 {
		return errors.New(errors.ErrConfig,
			"'sweep.iterations' must be at least 1",
			"Each sweep point needs at least one measurement.")
	}

	for _, t := range cfg.Targets {
		if strings.TrimSpace(t) == "" {
			return errors.New(errors.ErrConfig,
				"Empty entry in 'targets'",
				"Remove the blank line or fill in a device URI.")
		}
	}

	return nil
}
