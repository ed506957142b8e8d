package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .perfsuite.yaml configuration file.
type Config struct {
	Version    int              `yaml:"version" mapstructure:"version"`
	ControlHub ControlHubConfig `yaml:"controlhub" mapstructure:"controlhub"`
	Targets    []string         `yaml:"targets" mapstructure:"targets"`
	Timeout    time.Duration    `yaml:"timeout" mapstructure:"timeout"`
	Monitor    MonitorConfig    `yaml:"monitor" mapstructure:"monitor"`
	Sweep      SweepConfig      `yaml:"sweep" mapstructure:"sweep"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// ControlHubConfig describes the machine running the ControlHub packet broker.
type ControlHubConfig struct {
	// Host is the SSH connection string: hostname, user@hostname, or an
	// SSH config alias. Empty means the sweeps run without a remote broker.
	Host string `yaml:"host" mapstructure:"host"`

	// Env contains environment variables exported ahead of every command
	// run on the ControlHub host. Values support ${USER} and ${HOME}.
	Env map[string]string `yaml:"env" mapstructure:"env"`

	// ProcessMatch is the command-line substring identifying the broker
	// processes whose CPU/memory get monitored during client sweeps.
	ProcessMatch string `yaml:"process_match" mapstructure:"process_match"`
}

// MonitorConfig controls the resource monitoring loop.
type MonitorConfig struct {
	// Settle is the delay between launching a batch and the first sample.
	Settle time.Duration `yaml:"settle" mapstructure:"settle"`

	// Interval is the pause between monitoring ticks.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// SweepConfig parameterizes the measurement sweeps.
type SweepConfig struct {
	// Depths are the transfer block depths (32-bit words) for the depth sweep.
	Depths []int `yaml:"depths" mapstructure:"depths"`

	// Iterations is how many measurements to take per sweep point.
	Iterations int `yaml:"iterations" mapstructure:"iterations"`

	// Clients are the concurrent-client counts for the client sweep.
	Clients []int `yaml:"clients" mapstructure:"clients"`
}

// OutputConfig controls where and how results are reported.
type OutputConfig struct {
	// File is the results file path. Supports ${DATE} (yyyymmdd_HHMMSS),
	// ${USER} and ${HOME}.
	File string `yaml:"file" mapstructure:"file"`

	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Timeout: 60 * time.Second,
		Monitor: MonitorConfig{
			Settle:   400 * time.Millisecond,
			Interval: 50 * time.Millisecond,
		},
		Sweep: SweepConfig{
			Depths:     []int{1, 10, 100, 1000, 10000, 100000},
			Iterations: 10,
			Clients:    []int{1, 2, 4, 8},
		},
		Output: OutputConfig{
			File:  "perfsuite_results_${DATE}.yaml",
			Color: "auto",
		},
	}
}
