package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/doeshing/shai-agent/internal/domain"
)

const (
	maxOutputBytes = 2 << 20
	pipeGrace      = 2 * time.Second
)

// DefaultShell returns the shell binary and command flag for goos.
func DefaultShell(goos string) (string, string) {
	if goos == "windows" {
		return "cmd.exe", "/c"
	}
	if _, err := exec.LookPath("/bin/bash"); err == nil {
		return "/bin/bash", "-c"
	}
	return "/bin/sh", "-c"
}

// ShellRunner runs one command line through a host shell with a hard
// timeout. Output beyond maxOutputBytes per stream is discarded. Run returns
// at most pipeGrace after the timeout even when a detached descendant keeps
// the output pipes open.
type ShellRunner struct {
	Shell   string
	Flag    string
	Timeout time.Duration
}

// Run executes command in dir. A non-zero exit is a SubprocessFailure
// carrying both streams; exceeding Timeout kills the whole process group
// and yields SubprocessTimeout.
func (r *ShellRunner) Run(ctx context.Context, dir, command string) (domain.ExecutionResult, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := &cappedWriter{max: maxOutputBytes}
	stderr := &cappedWriter{max: maxOutputBytes}

	cmd := exec.CommandContext(runCtx, r.Shell, r.Flag, command)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Descendants that escape the kill may still hold the pipes open; Wait
	// gives up on them after pipeGrace.
	cmd.WaitDelay = pipeGrace
	configureProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return domain.ExecutionResult{}, startError(err)
	}
	waitErr := cmd.Wait()
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		waitErr = nil
	}

	result := domain.ExecutionResult{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		cerr := domain.NewCommandError(domain.ErrSubprocessTimeout, runCtx.Err(),
			"Command timeout after %s", timeout)
		cerr.Stdout, cerr.Stderr, cerr.ExitCode = result.Stdout, result.Stderr, -1
		return result, cerr
	}
	if ctx.Err() != nil {
		return result, domain.NewCommandError(domain.ErrSubprocessFailure, ctx.Err(),
			"Failed to execute command: %v", ctx.Err())
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			cerr := domain.NewCommandError(domain.ErrSubprocessFailure, waitErr,
				"Command failed with code %d:\n%s", result.ExitCode, domain.FormatStreams(result.Stdout, result.Stderr))
			cerr.Stdout, cerr.Stderr, cerr.ExitCode = result.Stdout, result.Stderr, result.ExitCode
			return result, cerr
		}
		return result, domain.NewCommandError(domain.ErrSubprocessFailure, waitErr,
			"Failed to execute command: %v", waitErr)
	}
	return result, nil
}

func startError(err error) error {
	return domain.NewCommandError(domain.ErrSubprocessFailure, err, "Failed to execute command: %v", err)
}

type cappedWriter struct {
	buf bytes.Buffer
	max int64
	n   int64
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	remain := w.max - w.n
	if remain <= 0 {
		return len(p), nil
	}
	chunk := p
	if int64(len(chunk)) > remain {
		chunk = chunk[:remain]
	}
	written, _ := w.buf.Write(chunk)
	w.n += int64(written)
	return len(p), nil
}

func (w *cappedWriter) String() string {
	return w.buf.String()
}
