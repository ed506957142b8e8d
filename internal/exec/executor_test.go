package exec

import (
	"context"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/perfsuite/internal/logger"
	sshtesting "github.com/rileyhilliard/perfsuite/pkg/sshutil/testing"
)

func TestExecute_Local(t *testing.T) {
	res, err := Execute(context.Background(), "echo hello", Options{Logger: logger.Noop()})

	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Output)
	assert.Nil(t, res.Value)
}

func TestExecute_Local_MergesStderr(t *testing.T) {
	res, err := Execute(context.Background(), "echo out; echo err 1>&2", Options{Logger: logger.Noop()})

	require.NoError(t, err)
	assert.Contains(t, res.Output, "out\n")
	assert.Contains(t, res.Output, "err\n")
}

func TestExecute_Local_BadExit(t *testing.T) {
	_, err := Execute(context.Background(), "echo partial; exit 42", Options{Logger: logger.Noop()})

	require.Error(t, err)
	var bad *BadExitError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 42, bad.ExitCode)
	assert.Equal(t, "partial\n", bad.Output)
}

func TestExecute_Local_HardTimeout(t *testing.T) {
	start := time.Now()
	_, err := Execute(context.Background(), "echo started; sleep 30", Options{
		Timeout: 200 * time.Millisecond,
		Logger:  logger.Noop(),
	})

	require.Error(t, err)
	var hard *HardTimeoutError
	require.ErrorAs(t, err, &hard)
	assert.Equal(t, "started\n", hard.Output)
	assert.Less(t, time.Since(start), 5*time.Second, "killed well before the sleep finished")
}

func TestExecute_Local_LongSingleLine(t *testing.T) {
	// 2MB on one line, far past any internal read buffering; the command
	// must still run to completion with byte-exact output.
	res, err := Execute(context.Background(),
		"head -c 2097152 /dev/zero | tr '\\0' 'a'; echo", Options{
			Timeout: 10 * time.Second,
			Logger:  logger.Noop(),
		})

	require.NoError(t, err)
	assert.Len(t, res.Output, 2097153)
	assert.Equal(t, "aaaa", res.Output[:4])
	assert.Equal(t, byte('\n'), res.Output[len(res.Output)-1])
}

func TestExecute_Local_HardTimeoutKillsProcessGroup(t *testing.T) {
	// The shell prints its own pid, which is the process group id since the
	// command gets its own group.
	_, err := Execute(context.Background(), "echo $$; sleep 30", Options{
		Timeout: 200 * time.Millisecond,
		Logger:  logger.Noop(),
	})

	var hard *HardTimeoutError
	require.ErrorAs(t, err, &hard)

	pgid, convErr := strconv.Atoi(strings.TrimSpace(hard.Output))
	require.NoError(t, convErr)
	assert.Eventually(t, func() bool {
		return syscall.Kill(-pgid, 0) == syscall.ESRCH
	}, 2*time.Second, 10*time.Millisecond, "process group %d still running", pgid)
}

func TestExecute_Local_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := Execute(ctx, "sleep 30", Options{Logger: logger.Noop()})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_Remote(t *testing.T) {
	m := sshtesting.NewMockClient("board")
	m.SetResponse("uname -s", sshtesting.CommandResponse{Stdout: []byte("Linux\n")})

	res, err := Execute(context.Background(), "uname -s", Options{
		Session: m,
		Logger:  logger.Noop(),
	})

	require.NoError(t, err)
	assert.Equal(t, "Linux\n", res.Output)
	assert.Equal(t, []string{"uname -s"}, m.Calls())
}

func TestExecute_Remote_EnvExportsSortedAndQuoted(t *testing.T) {
	m := sshtesting.NewMockClient("board")

	_, err := Execute(context.Background(), "run_test", Options{
		Session: m,
		Env: map[string]string{
			"PATH":            "/opt/cactus/bin:/usr/bin",
			"LD_LIBRARY_PATH": "/opt/cactus/lib",
		},
		Logger: logger.Noop(),
	})

	require.NoError(t, err)
	require.Len(t, m.Calls(), 1)
	assert.Equal(t,
		"export LD_LIBRARY_PATH='/opt/cactus/lib' ; export PATH='/opt/cactus/bin:/usr/bin' ; run_test",
		m.Calls()[0])
}

func TestExecute_Remote_BadExit(t *testing.T) {
	m := sshtesting.NewMockClient("board")
	m.SetResponse("failing", sshtesting.CommandResponse{Stderr: []byte("boom\n"), ExitCode: 3})

	_, err := Execute(context.Background(), "failing", Options{Session: m, Logger: logger.Noop()})

	var bad *BadExitError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 3, bad.ExitCode)
	assert.Contains(t, bad.Output, "boom")
}

func TestExecute_SudoCarriesPath(t *testing.T) {
	m := sshtesting.NewMockClient("board")

	_, err := Execute(context.Background(), "sudo /sbin/service controlhub start", Options{
		Session: m,
		Logger:  logger.Noop(),
	})

	require.NoError(t, err)
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, "sudo PATH=$PATH /sbin/service controlhub start", m.Calls()[0])
}

func TestExecute_AppliesDefaultParser(t *testing.T) {
	m := sshtesting.NewMockClient("board")
	m.SetSubstringResponse("PerfTester.exe", sshtesting.CommandResponse{
		Stdout: []byte("Test iteration frequency = 1000.0 Hz\nAverage read bandwidth = 250000.0 KB/s\n"),
	})

	res, err := Execute(context.Background(), "PerfTester.exe -t BandwidthRx", Options{
		Session: m,
		Logger:  logger.Noop(),
	})

	require.NoError(t, err)
	meas, ok := res.Value.(PerfMeasurement)
	require.True(t, ok)
	assert.InDelta(t, 1000.0, meas.LatencyUs, 1e-9)
	assert.InDelta(t, 2.0, meas.BandwidthGbps, 1e-9)
}

func TestExecute_ExplicitParserOverrides(t *testing.T) {
	res, err := Execute(context.Background(), "echo 7", Options{
		Parser: func(output string) (any, error) { return len(output), nil },
		Logger: logger.Noop(),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Value)
}
