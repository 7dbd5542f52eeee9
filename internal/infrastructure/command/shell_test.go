package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/doeshing/shai-agent/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestShellRunnerSuccess(t *testing.T) {
	skipOnWindows(t)
	r := &ShellRunner{Shell: "/bin/sh", Flag: "-c", Timeout: 5 * time.Second}
	res, err := r.Run(context.Background(), t.TempDir(), `echo hello; echo warn 1>&2`)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "hello" || res.Stderr != "warn" {
		t.Fatalf("Run() = %+v", res)
	}
	if got := res.String(); got != "stdout: hello\nstderr: warn" {
		t.Fatalf("String() = %q", got)
	}
}

func TestShellRunnerTimeout(t *testing.T) {
	skipOnWindows(t)
	r := &ShellRunner{Shell: "/bin/sh", Flag: "-c", Timeout: 200 * time.Millisecond}

	start := time.Now()
	_, err := r.Run(context.Background(), t.TempDir(), `sleep 5 & sleep 5; wait`)
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrSubprocessTimeout) {
		t.Fatalf("Run() error = %v, want subprocess timeout", err)
	}
	if err.Error() != "Command timeout after 200ms" {
		t.Fatalf("Run() message = %q", err.Error())
	}
	if elapsed > 3*time.Second {
		t.Fatalf("Run() took %s, want prompt kill", elapsed)
	}
}

func TestShellRunnerTimeoutWithDetachedChild(t *testing.T) {
	skipOnWindows(t)
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not available")
	}
	r := &ShellRunner{Shell: "/bin/sh", Flag: "-c", Timeout: 500 * time.Millisecond}

	start := time.Now()
	_, err := r.Run(context.Background(), t.TempDir(), `setsid sleep 6`)
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrSubprocessTimeout) {
		t.Fatalf("Run() error = %v, want subprocess timeout", err)
	}
	if limit := 500*time.Millisecond + pipeGrace + time.Second; elapsed > limit {
		t.Fatalf("Run() took %s, want under %s", elapsed, limit)
	}
}

func TestShellRunnerDetachedChildAfterExit(t *testing.T) {
	skipOnWindows(t)
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not available")
	}
	r := &ShellRunner{Shell: "/bin/sh", Flag: "-c", Timeout: 10 * time.Second}

	start := time.Now()
	res, err := r.Run(context.Background(), t.TempDir(), `echo started; setsid sleep 6 &`)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "started" {
		t.Fatalf("Run() stdout = %q", res.Stdout)
	}
	if limit := pipeGrace + time.Second; elapsed > limit {
		t.Fatalf("Run() took %s, want under %s", elapsed, limit)
	}
}

func TestShellRunnerParentCancel(t *testing.T) {
	skipOnWindows(t)
	r := &ShellRunner{Shell: "/bin/sh", Flag: "-c", Timeout: 10 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := r.Run(ctx, t.TempDir(), `sleep 5`)
	if errors.Is(err, domain.ErrSubprocessTimeout) {
		t.Fatalf("cancellation reported as timeout: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestShellRunnerMissingBinary(t *testing.T) {
	r := &ShellRunner{Shell: "/nonexistent/shell", Flag: "-c", Timeout: time.Second}
	_, err := r.Run(context.Background(), t.TempDir(), `true`)
	if !errors.Is(err, domain.ErrSubprocessFailure) {
		t.Fatalf("Run() error = %v, want subprocess failure", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to execute command:") {
		t.Fatalf("Run() message = %q", err.Error())
	}
}

func TestCappedWriter(t *testing.T) {
	w := &cappedWriter{max: 5}
	n, err := w.Write([]byte("abc"))
	if err != nil || n != 3 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	n, err = w.Write([]byte("defgh"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if _, err := w.Write([]byte("ij")); err != nil {
		t.Fatalf("Write after cap: %v", err)
	}
	if got := w.String(); got != "abcde" {
		t.Fatalf("String() = %q, want %q", got, "abcde")
	}
}
