package manager

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// Runner executes one runner invocation and collects its output.
// A non-zero exit status is reported in RunResult, not as an error; errors
// mean the process could not be started, waited on, or was canceled.
type Runner interface {
	Run(ctx context.Context, argv []string) (RunResult, error)
}

// RunResult is the outcome of one runner process.
type RunResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	PID      int
	Duration time.Duration
}

// ExecRunner runs argv with os/exec, one discrete argument per element.
// On context cancellation the child gets SIGTERM and is killed after StopGrace.
type ExecRunner struct {
	StopGrace time.Duration
}

func (r ExecRunner) Run(ctx context.Context, argv []string) (RunResult, error) {
	res := RunResult{ExitCode: -1}
	if len(argv) == 0 || argv[0] == "" {
		return res, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.StopGrace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultStopGrace
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return res, err
	}
	res.PID = cmd.Process.Pid
	err := cmd.Wait()
	res.Duration = time.Since(start)
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, nil
	}
	// The process exited but a descendant kept the output pipes open.
	if errors.Is(err, exec.ErrWaitDelay) && res.ExitCode >= 0 {
		return res, nil
	}
	return res, err
}

// CommandLine renders argv as a single shell-quoted line for logs and dry
// runs. The result is for humans; commands are never executed through a shell.
func CommandLine(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, a := range argv {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = strconv.Quote(a)
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

// tail returns at most n trailing bytes of b as a string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
