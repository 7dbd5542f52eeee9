package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Command-level failures. These never end a run; the agent loop feeds them
// back to the model as observations.
var (
	ErrFilesystem          = errors.New("filesystem error")
	ErrDirectoryNotFound   = errors.New("directory not found")
	ErrUnsupportedPlatform = errors.New("unsupported platform operation")
	ErrSubprocessFailure   = errors.New("subprocess failure")
	ErrSubprocessTimeout   = errors.New("subprocess timeout")
	ErrCommandBlocked      = errors.New("command blocked")
)

// Run-level failures. These abort the run.
var (
	ErrProtocolViolation = errors.New("protocol violation")
	ErrBackend           = errors.New("backend error")
	ErrConfiguration     = errors.New("configuration error")
	ErrUnknownTool       = errors.New("unknown tool")
	ErrMaxSteps          = errors.New("maximum steps reached")
)

// CommandError is the typed failure returned by the command engine.
// Kind is one of the command-level sentinels above.
type CommandError struct {
	Kind     error
	Message  string
	Err      error
	Stdout   string
	Stderr   string
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *CommandError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewCommandError builds a CommandError with a formatted message.
func NewCommandError(kind, cause error, format string, args ...any) *CommandError {
	return &CommandError{Kind: kind, Err: cause, Message: fmt.Sprintf(format, args...)}
}

// FormatStreams renders captured output in the "stdout: ...\nstderr: ..." shape
// the model sees.
func FormatStreams(stdout, stderr string) string {
	var b strings.Builder
	b.WriteString("stdout: ")
	b.WriteString(stdout)
	b.WriteString("\nstderr:")
	if stderr != "" {
		b.WriteString(" ")
		b.WriteString(stderr)
	}
	return b.String()
}
