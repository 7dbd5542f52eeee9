package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Engine classifies and executes raw command strings for one run.
// The working directory is engine state, not process state: ChangeDirectory
// moves it for every later command of the same engine and never calls
// os.Chdir.
type Engine struct {
	dir     string
	runner  *ShellRunner
	guard   ports.SecurityService
	logger  ports.Logger
	windows bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithShell overrides the shell binary and its command flag.
func WithShell(shell, flag string) Option {
	return func(e *Engine) {
		if shell != "" {
			e.runner.Shell = shell
		}
		if flag != "" {
			e.runner.Flag = flag
		}
	}
}

// WithTimeout sets the hard raw shell execution budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.runner.Timeout = d
		}
	}
}

// WithGuardrail screens raw shell commands before they are spawned.
func WithGuardrail(guard ports.SecurityService) Option {
	return func(e *Engine) { e.guard = guard }
}

// WithLogger attaches a logger.
func WithLogger(logger ports.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPlatform overrides the detected GOOS, which decides the shell and
// whether shell metacharacters are allowed.
func WithPlatform(goos string) Option {
	return func(e *Engine) {
		e.windows = goos == "windows"
		shell, flag := DefaultShell(goos)
		e.runner.Shell, e.runner.Flag = shell, flag
	}
}

// NewEngine builds an engine rooted at dir (the process working directory
// when empty).
func NewEngine(dir string, opts ...Option) (*Engine, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %s is not a directory", abs)
	}

	shell, flag := DefaultShell(runtime.GOOS)
	e := &Engine{
		dir:     abs,
		runner:  &ShellRunner{Shell: shell, Flag: flag, Timeout: domain.DefaultCommandTimeout},
		logger:  nopLogger{},
		windows: runtime.GOOS == "windows",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dir returns the engine's absolute working directory.
func (e *Engine) Dir() string {
	return e.dir
}

// Execute implements ports.CommandExecutor.
func (e *Engine) Execute(ctx context.Context, raw string) (domain.ExecutionResult, error) {
	intent := Classify(raw)
	e.logger.Debug("command classified", map[string]interface{}{
		"intent": string(intent.Kind),
		"dir":    e.dir,
	})

	switch intent.Kind {
	case domain.IntentFileCreate:
		return e.createFile(intent.Path, intent.Content)
	case domain.IntentDirectoryCreate:
		return e.createDirectory(intent.Path)
	case domain.IntentList:
		return e.list()
	case domain.IntentPrintWorkingDirectory:
		return domain.ExecutionResult{Stdout: e.dir}, nil
	case domain.IntentChangeDirectory:
		return e.changeDirectory(intent.Target)
	case domain.IntentRawShell:
		return e.rawShell(ctx, intent.Raw)
	default:
		return domain.ExecutionResult{}, fmt.Errorf("unhandled intent %q", intent.Kind)
	}
}

func (e *Engine) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.dir, path)
}

func (e *Engine) rawShell(ctx context.Context, command string) (domain.ExecutionResult, error) {
	if e.windows && strings.ContainsAny(command, "|&>") {
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrUnsupportedPlatform, nil,
			"Complex shell operations not supported on this platform. Use direct file operations instead.")
	}

	if e.guard != nil {
		risk, err := e.guard.Evaluate(command)
		if err != nil {
			return domain.ExecutionResult{}, fmt.Errorf("guardrail evaluate: %w", err)
		}
		switch risk.Action {
		case domain.ActionBlock:
			e.logger.Warn("command blocked by guardrail", map[string]interface{}{
				"level": string(risk.Level),
				"rules": risk.MatchedRules,
			})
			return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrCommandBlocked, nil,
				"Command blocked by guardrail: %s", strings.Join(risk.Reasons, "; "))
		case domain.ActionWarn:
			e.logger.Warn("risky command allowed", map[string]interface{}{
				"level":   string(risk.Level),
				"reasons": risk.Reasons,
			})
		}
	}

	e.logger.Debug("spawning shell", map[string]interface{}{"shell": e.runner.Shell, "timeout": e.runner.Timeout.String()})
	return e.runner.Run(ctx, e.dir, command)
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

var _ ports.CommandExecutor = (*Engine)(nil)
