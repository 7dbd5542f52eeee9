package domain

import "time"

// IntentKind tags the high-level meaning of a raw command string.
type IntentKind string

const (
	IntentFileCreate            IntentKind = "file_create"
	IntentDirectoryCreate       IntentKind = "directory_create"
	IntentList                  IntentKind = "list"
	IntentPrintWorkingDirectory IntentKind = "print_working_directory"
	IntentChangeDirectory       IntentKind = "change_directory"
	IntentRawShell              IntentKind = "raw_shell"
)

// CommandIntent is the classification of one raw command string.
// Operands that do not apply to Kind are left empty.
type CommandIntent struct {
	Kind    IntentKind
	Path    string
	Content string
	Target  string
	Raw     string
}

// ExecutionResult is the successful outcome of one command.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// String renders the result as observation text.
func (r ExecutionResult) String() string {
	return FormatStreams(r.Stdout, r.Stderr)
}
