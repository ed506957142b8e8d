package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
)

type samplerFunc func(ctx context.Context, target ProbeTarget) (float64, float64, error)

func (f samplerFunc) Sample(ctx context.Context, target ProbeTarget) (float64, float64, error) {
	return f(ctx, target)
}

func constSampler(cpu, mem float64) Sampler {
	return samplerFunc(func(context.Context, ProbeTarget) (float64, float64, error) {
		return cpu, mem, nil
	})
}

// delaySession completes after a fixed delay, recording that it finished.
type delaySession struct {
	delay    time.Duration
	output   string
	exitCode int
	finished atomic.Bool
}

func (s *delaySession) Exec(cmd string) ([]byte, []byte, int, error) {
	time.Sleep(s.delay)
	s.finished.Store(true)
	return []byte(s.output), nil, s.exitCode, nil
}

func TestRun_EmptyBatch(t *testing.T) {
	r := NewCommandRunner(nil, WithLogger(logger.Noop()))

	_, _, err := r.Run(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestRun_ResultsInSubmissionOrder(t *testing.T) {
	slow := &delaySession{delay: 150 * time.Millisecond, output: "slow\n"}
	fast := &delaySession{delay: 20 * time.Millisecond, output: "fast\n"}

	r := NewCommandRunner(
		[]ProbeTarget{{Match: "beam"}},
		WithSampler(constSampler(10, 5)),
		WithSettle(5*time.Millisecond),
		WithInterval(5*time.Millisecond),
		WithLogger(logger.Noop()),
	)

	probeStats, results, err := r.Run(context.Background(), []Command{
		{Cmd: "slow_cmd", Session: slow},
		{Cmd: "fast_cmd", Session: fast},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "slow\n", results[0].Output)
	assert.Equal(t, "fast\n", results[1].Output)

	require.Len(t, probeStats, 1)
	assert.Equal(t, "beam", probeStats[0].Match)
	if probeStats[0].Samples > 0 {
		assert.Equal(t, 10.0, probeStats[0].CPU)
		assert.Equal(t, 5.0, probeStats[0].Mem)
	}
}

func TestRun_FailureReportedAfterFullJoin(t *testing.T) {
	failing := &delaySession{delay: 10 * time.Millisecond, output: "boom\n", exitCode: 2}
	straggler := &delaySession{delay: 200 * time.Millisecond, output: "ok\n"}

	r := NewCommandRunner(nil,
		WithSampler(constSampler(0, 0)),
		WithSettle(time.Millisecond),
		WithInterval(time.Millisecond),
		WithLogger(logger.Noop()),
	)

	_, _, err := r.Run(context.Background(), []Command{
		{Cmd: "failing", Session: failing},
		{Cmd: "straggler", Session: straggler},
	})

	require.Error(t, err)
	var bad *exec.BadExitError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 2, bad.ExitCode)
	assert.True(t, straggler.finished.Load(), "every command is joined before the failure surfaces")
}

// releaseSession blocks until released, so tests control exactly when the
// batch's first completion fires.
type releaseSession struct {
	release chan struct{}
}

func (s *releaseSession) Exec(cmd string) ([]byte, []byte, int, error) {
	<-s.release
	return []byte("ok\n"), nil, 0, nil
}

func TestRun_SingleSampleProbeReportsZero(t *testing.T) {
	release := make(chan struct{})
	session := &releaseSession{release: release}

	var sampled atomic.Bool
	sampler := samplerFunc(func(context.Context, ProbeTarget) (float64, float64, error) {
		if sampled.CompareAndSwap(false, true) {
			close(release) // let the command complete after the first sample
		}
		return 42, 7, nil
	})

	r := NewCommandRunner(
		[]ProbeTarget{{Match: "beam"}},
		WithSampler(sampler),
		WithSettle(time.Millisecond),
		WithInterval(time.Hour), // the first-completion signal must win the select
		WithLogger(logger.Noop()),
	)

	probeStats, results, err := r.Run(context.Background(), []Command{
		{Cmd: "cmd", Session: session},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, probeStats, 1)
	assert.Equal(t, 0, probeStats[0].Samples, "the only sample raced completion and is dropped")
	assert.Equal(t, 0.0, probeStats[0].CPU)
	assert.Equal(t, 0.0, probeStats[0].Mem)
}

func TestRun_SamplerErrorSurfacesAfterJoin(t *testing.T) {
	session := &delaySession{delay: 100 * time.Millisecond, output: "ok\n"}
	samplerErr := errors.New(errors.ErrExec, "ps unavailable", "")

	r := NewCommandRunner(
		[]ProbeTarget{{Match: "beam"}},
		WithSampler(samplerFunc(func(context.Context, ProbeTarget) (float64, float64, error) {
			return 0, 0, samplerErr
		})),
		WithSettle(time.Millisecond),
		WithInterval(time.Millisecond),
		WithLogger(logger.Noop()),
	)

	_, _, err := r.Run(context.Background(), []Command{{Cmd: "cmd", Session: session}})

	require.Error(t, err)
	assert.Equal(t, samplerErr, err)
	assert.True(t, session.finished.Load())
}

func TestRun_ContextCancelPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	r := NewCommandRunner(nil,
		WithSampler(constSampler(0, 0)),
		WithSettle(time.Millisecond),
		WithInterval(time.Millisecond),
		WithLogger(logger.Noop()),
	)

	_, _, err := r.Run(ctx, []Command{{Cmd: "sleep 30"}})

	assert.ErrorIs(t, err, context.Canceled)
}
