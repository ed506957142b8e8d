// Package stats computes sample means and RMS values with bootstrap error
// estimates, and assembles x-ordered series for measurement sweeps.
package stats

import (
	"math"
	"math/rand"
	"sort"
)

// bootstrapResamples is fixed; callers don't get to tune it.
const bootstrapResamples = 100

// Mean returns the arithmetic mean of samples, or 0 for an empty slice.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// RMS returns sqrt(mean(x²) − mean(x)²). When every sample is identical the
// true RMS is zero, but floating-point cancellation can leave a tiny negative
// argument under the root; that case is mapped to 0 explicitly.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	min, max := samples[0], samples[0]
	var sum, sumSq float64
	for _, v := range samples {
		sum += v
		sumSq += v * v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return 0
	}
	n := float64(len(samples))
	mean := sum / n
	return math.Sqrt(sumSq/n - mean*mean)
}

// MeanWithError returns the mean of samples and a bootstrap error estimate:
// the RMS of the means of 100 same-size resamples drawn with replacement.
func MeanWithError(samples []float64) (mean, err float64) {
	return Mean(samples), bootstrapError(samples, Mean)
}

// RMSWithError returns the RMS of samples and a bootstrap error estimate
// computed the same way as MeanWithError, over resampled RMS values.
func RMSWithError(samples []float64) (rms, err float64) {
	return RMS(samples), bootstrapError(samples, RMS)
}

// bootstrapError resamples with replacement and reports the spread of the
// statistic across resamples.
func bootstrapError(samples []float64, statistic func([]float64) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	values := make([]float64, bootstrapResamples)
	resample := make([]float64, len(samples))
	for i := range values {
		for j := range resample {
			resample[j] = samples[rand.Intn(len(samples))]
		}
		values[i] = statistic(resample)
	}
	return RMS(values)
}

// Series holds per-x statistics in ascending-x order, as parallel slices.
// RMS entries are normalized by the mean (fractional variation); error bounds
// are symmetric, so Lo and Hi always match.
type Series struct {
	X         []float64 `yaml:"x"`
	Mean      []float64 `yaml:"mean"`
	MeanErrLo []float64 `yaml:"mean_err_lo"`
	MeanErrHi []float64 `yaml:"mean_err_hi"`
	RMS       []float64 `yaml:"rms"`
	RMSErrLo  []float64 `yaml:"rms_err_lo"`
	RMSErrHi  []float64 `yaml:"rms_err_hi"`
}

// SeriesStats aggregates an x→samples mapping into a Series. For each x it
// records mean±error and RMS/mean±error/mean. A zero mean would divide the
// normalization to pieces, so those entries are reported as 0.
func SeriesStats(data map[float64][]float64) Series {
	xs := make([]float64, 0, len(data))
	for x := range data {
		xs = append(xs, x)
	}
	sort.Float64s(xs)

	s := Series{}
	for _, x := range xs {
		samples := data[x]
		mean, meanErr := MeanWithError(samples)
		rms, rmsErr := RMSWithError(samples)

		relRMS, relErr := 0.0, 0.0
		if mean != 0 {
			relRMS = rms / mean
			relErr = rmsErr / mean
		}

		s.X = append(s.X, x)
		s.Mean = append(s.Mean, mean)
		s.MeanErrLo = append(s.MeanErrLo, meanErr)
		s.MeanErrHi = append(s.MeanErrHi, meanErr)
		s.RMS = append(s.RMS, relRMS)
		s.RMSErrLo = append(s.RMSErrLo, relErr)
		s.RMSErrHi = append(s.RMSErrHi, relErr)
	}
	return s
}
