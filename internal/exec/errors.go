package exec

import (
	"fmt"
	"time"
)

// HardTimeoutError reports a local command that ran longer than its wall-clock
// budget and was killed, process group and all. Output holds everything the
// command wrote before it was terminated.
type HardTimeoutError struct {
	Cmd     string
	Timeout time.Duration
	Output  string
}

func (e *HardTimeoutError) Error() string {
	return fmt.Sprintf("command '%s' exceeded the %s hard timeout; output so far:\n%s",
		e.Cmd, e.Timeout, e.Output)
}

// BadExitError reports a command that ran to completion but returned a
// non-zero exit code. Output holds the full combined stdout+stderr.
type BadExitError struct {
	Cmd      string
	ExitCode int
	Output   string
}

func (e *BadExitError) Error() string {
	return fmt.Sprintf("exit code %d from command '%s'; output was:\n%s",
		e.ExitCode, e.Cmd, e.Output)
}
