package sweep

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/internal/stats"
)

// outlierFraction of the highest latencies per sweep point gets discarded.
// Scheduler hiccups on the test PC produce a long right tail that would
// otherwise dominate the RMS.
const outlierFraction = 0.08

// DepthConfig parameterizes a block-depth sweep against one device.
type DepthConfig struct {
	Target     string            // device URI passed to the test binary
	Session    exec.Session      // where the test binary runs; nil means local
	Depths     []int             // block depths in 32-bit words
	Iterations int               // measurements per depth
	Env        map[string]string // exports for remote runs
	Timeout    time.Duration     // per-measurement hard timeout (local only)
	Logger     logger.Logger
}

// DepthResults holds latency and bandwidth series for writes (Tx) and
// reads (Rx), indexed by block depth.
type DepthResults struct {
	Target      string       `yaml:"target"`
	TxLatency   stats.Series `yaml:"tx_latency_us"`
	RxLatency   stats.Series `yaml:"rx_latency_us"`
	TxBandwidth stats.Series `yaml:"tx_bandwidth_gbps"`
	RxBandwidth stats.Series `yaml:"rx_bandwidth_gbps"`
}

// Depth measures latency and derived bandwidth as a function of transfer
// block depth, for both write and read directions.
func Depth(ctx context.Context, cfg DepthConfig) (*DepthResults, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	if len(cfg.Depths) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No depths to sweep",
			"Set 'sweep.depths' to at least one block depth.")
	}
	if cfg.Iterations <= 0 {
		return nil, errors.New(errors.ErrConfig,
			"Sweep needs at least one iteration per depth",
			"Set 'sweep.iterations' to 1 or more.")
	}

	results := &DepthResults{Target: cfg.Target}
	for _, direction := range []string{"BandwidthTx", "BandwidthRx"} {
		latencies, bandwidths, err := measureDirection(ctx, cfg, direction, log)
		if err != nil {
			return nil, err
		}
		if direction == "BandwidthTx" {
			results.TxLatency = stats.SeriesStats(latencies)
			results.TxBandwidth = stats.SeriesStats(bandwidths)
		} else {
			results.RxLatency = stats.SeriesStats(latencies)
			results.RxBandwidth = stats.SeriesStats(bandwidths)
		}
	}
	return results, nil
}

func measureDirection(ctx context.Context, cfg DepthConfig, direction string, log logger.Logger) (latencies, bandwidths map[float64][]float64, err error) {
	latencies = make(map[float64][]float64)
	bandwidths = make(map[float64][]float64)

	for _, depth := range cfg.Depths {
		log.Info("Measuring %s at depth %d (%d iterations)", direction, depth, cfg.Iterations)

		samples := make([]float64, 0, cfg.Iterations)
		for i := 0; i < cfg.Iterations; i++ {
			cmd := fmt.Sprintf("PerfTester.exe -t %s -b 0x2001 -w %d -p -i 1 -d %s",
				direction, depth, cfg.Target)
			res, err := exec.Execute(ctx, cmd, exec.Options{
				Session: cfg.Session,
				Env:     cfg.Env,
				Timeout: cfg.Timeout,
				Logger:  log,
			})
			if err != nil {
				return nil, nil, err
			}
			meas, ok := res.Value.(exec.PerfMeasurement)
			if !ok {
				return nil, nil, errors.New(errors.ErrParse,
					"Test binary output did not parse into a measurement",
					"Check the PerfTester version on the test PC.")
			}
			samples = append(samples, meas.LatencyUs)
		}

		samples = trimOutliers(samples)
		x := float64(depth)
		for _, t := range samples {
			latencies[x] = append(latencies[x], t)
			// 32 bits per word, t in microseconds: Gbit/s
			bandwidths[x] = append(bandwidths[x], 1e-3*32*float64(depth)/t)
		}
	}
	return latencies, bandwidths, nil
}

// trimOutliers drops the highest ceil(8%·n) samples. The input is not
// preserved; the returned slice is sorted ascending.
func trimOutliers(samples []float64) []float64 {
	sort.Float64s(samples)
	drop := int(math.Ceil(outlierFraction * float64(len(samples))))
	if drop >= len(samples) {
		return samples[:0]
	}
	return samples[:len(samples)-drop]
}
