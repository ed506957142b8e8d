// Package exec runs a single measurement command, locally or through a remote
// SSH session, and classifies the outcome.
//
// Local commands get their own process group and a hard wall-clock timeout:
// if the command outlives the budget the whole group is killed and a
// HardTimeoutError carries whatever output was collected. Remote commands
// have no client-side timeout; the session's own semantics govern blocking.
package exec

import (
	"context"
	"os"
	osexec "os/exec"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/internal/util"
)

// DefaultTimeout is the wall-clock budget for local commands when Options
// doesn't set one.
const DefaultTimeout = 60 * time.Second

// Session is the remote execution capability consumed by Execute.
// *sshutil.Client satisfies it, as do test mocks.
type Session interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)
}

// Options configures a single Execute call.
type Options struct {
	Session Session           // nil means run locally
	Parser  Parser            // nil means auto-detect by command name
	Env     map[string]string // exported ahead of remote commands
	Timeout time.Duration     // local hard timeout; 0 means DefaultTimeout
	Logger  logger.Logger
}

// Result is the outcome of a successful command execution.
// Value is set only when a parser transformed the output.
type Result struct {
	ExitCode int
	Output   string
	Value    any
}

// Execute runs cmd and returns its result.
//
// Failure modes: *HardTimeoutError when a local command exceeds the budget,
// *BadExitError on a non-zero exit code, the context error when the caller
// cancels mid-run. On every failure path the local process group is no
// longer running when Execute returns.
func Execute(ctx context.Context, cmd string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	// Parser detection looks at the command as submitted, before any rewrite.
	parser := opts.Parser
	if parser == nil {
		parser = defaultParserFor(cmd)
	}

	// sudo strips PATH on most test stands; carry the caller's through.
	if strings.HasPrefix(cmd, "sudo ") {
		cmd = "sudo PATH=$PATH " + strings.TrimPrefix(cmd, "sudo ")
	}

	var res *Result
	var err error
	if opts.Session == nil {
		res, err = executeLocal(ctx, cmd, opts.Timeout, log)
	} else {
		res, err = executeRemote(cmd, opts.Session, opts.Env, log)
	}
	if err != nil {
		return nil, err
	}

	if parser != nil {
		value, perr := parser(res.Output)
		if perr != nil {
			return nil, perr
		}
		res.Value = value
	}
	return res, nil
}

// processGroup is a handle to a spawned command's process group.
// Killing the group takes down the command and any children it spawned.
type processGroup struct {
	pgid int
}

func (g processGroup) kill() {
	// Negative pid addresses the whole group.
	_ = syscall.Kill(-g.pgid, syscall.SIGTERM)
}

// executeLocal spawns cmd in its own process group and reads merged
// stdout/stderr incrementally until EOF, timeout, or cancellation.
func executeLocal(ctx context.Context, cmd string, timeout time.Duration, log logger.Logger) (*Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log.Debug("Running (locally): %s", cmd)

	command := osexec.Command("/bin/sh", "-c", cmd)
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// One pipe for both streams keeps output in arrival order.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't create output pipe",
			"This shouldn't happen - please report this bug!")
	}
	command.Stdout = pw
	command.Stderr = pw

	if err := command.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't start the command",
			"Make sure /bin/sh exists and the command is well-formed.")
	}
	pw.Close() // child holds the write end now
	defer pr.Close()

	group := processGroup{pgid: command.Process.Pid}

	// Read raw chunks off the main goroutine so the timeout can fire while
	// the command is stalled. Chunk reads have no line-length limit, so
	// arbitrarily long output never stalls the reader. The reader exits on
	// EOF, which is guaranteed once the group is killed.
	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		buf := make([]byte, 32*1024)
		for {
			n, err := pr.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil {
				return
			}
		}
	}()

	var out strings.Builder
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	drain := func() {
		for chunk := range chunks {
			out.Write(chunk)
		}
	}

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return finishLocal(command, cmd, &out, log)
			}
			out.Write(chunk)

		case <-timer.C:
			group.kill()
			drain()
			_ = command.Wait()
			return nil, &HardTimeoutError{Cmd: cmd, Timeout: timeout, Output: out.String()}

		case <-ctx.Done():
			group.kill()
			drain()
			_ = command.Wait()
			return nil, ctx.Err()
		}
	}
}

// finishLocal reaps the exited command and classifies its exit code.
func finishLocal(command *osexec.Cmd, cmd string, out *strings.Builder, log logger.Logger) (*Result, error) {
	log.Debug("Output is ...\n%s", out.String())

	if err := command.Wait(); err != nil {
		if exitErr, ok := err.(*osexec.ExitError); ok {
			return nil, &BadExitError{Cmd: cmd, ExitCode: exitErr.ExitCode(), Output: out.String()}
		}
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't reap the command",
			"This shouldn't happen - please report this bug!")
	}
	return &Result{ExitCode: 0, Output: out.String()}, nil
}

// executeRemote dispatches cmd through the session, prefixed with the
// configured environment exports. There is no client-side timeout here.
func executeRemote(cmd string, session Session, env map[string]string, log logger.Logger) (*Result, error) {
	cmd = envPrefix(env) + cmd
	log.Debug("Running (remotely): %s", cmd)

	stdout, stderr, exitCode, err := session.Exec(cmd)
	if err != nil {
		return nil, err
	}

	output := string(stdout) + string(stderr)
	log.Debug("Output is ...\n%s", output)

	if exitCode != 0 {
		return nil, &BadExitError{Cmd: cmd, ExitCode: exitCode, Output: output}
	}
	return &Result{ExitCode: exitCode, Output: output}, nil
}

// envPrefix renders env as export statements ahead of a remote command, in
// sorted key order so the generated command line is deterministic.
func envPrefix(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString("export ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(util.ShellQuote(env[k]))
		b.WriteString(" ; ")
	}
	return b.String()
}
