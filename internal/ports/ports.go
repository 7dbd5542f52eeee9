// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core (the agent loop) depends only on these abstractions;
// adapters in the infrastructure layer implement them: the chat-completion
// client, the command engine, the sqlite run store, the YAML config loader.
package ports

import (
	"context"

	"github.com/doeshing/shai-agent/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ChatModel is the language-model backend. Complete sends the full history
// and returns the content of the single assistant reply.
type ChatModel interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// ModelFactory builds a ChatModel for a model definition.
type ModelFactory interface {
	ForModel(domain.ModelDefinition) (ChatModel, error)
}

// CommandExecutor runs one raw command string and reports a normalized result
// or a *domain.CommandError.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) (domain.ExecutionResult, error)
}

// ToolRegistry resolves tool names to callables.
type ToolRegistry interface {
	Invoke(ctx context.Context, name, input string) (string, error)
	Has(name string) bool
	Names() []string
}

// ToolboxFactory builds a fresh tool registry for one run, rooted at workDir.
// Tools that keep state (the command engine's working directory) never
// outlive the run.
type ToolboxFactory interface {
	ForRun(cfg domain.Config, workDir string) (ToolRegistry, error)
}

// SecurityService evaluates raw shell commands against guardrail rules.
type SecurityService interface {
	Evaluate(command string) (domain.RiskAssessment, error)
}

// HistoryRepository persists finished runs.
type HistoryRepository interface {
	Save(ctx context.Context, record domain.RunRecord) error
	Runs(ctx context.Context, limit int) ([]domain.RunRecord, error)
	Run(ctx context.Context, id string) (domain.RunRecord, error)
	Clear(ctx context.Context) error
}

// ProgressReporter receives human-readable progress, one event per step.
type ProgressReporter interface {
	Step(kind domain.StepKind, text string)
	Notice(text string)
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
