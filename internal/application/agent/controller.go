// Package agent runs the THINK → ACTION → OBSERVE → OUTPUT loop.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// RunResult is the terminal outcome of one run.
type RunResult struct {
	RunID   string
	State   domain.RunState
	Output  string
	Abort   domain.AbortReason
	Err     error
	Turns   int
	History []domain.Message
}

// Done reports whether the run finished with an output step.
func (r RunResult) Done() bool {
	return r.State == domain.StateDone
}

// Controller drives one model through the step protocol. It is strictly
// sequential: one outstanding model call or tool invocation at a time.
type Controller struct {
	Model    ports.ChatModel
	Tools    ports.ToolRegistry
	Reporter ports.ProgressReporter
	Logger   ports.Logger
	MaxSteps int
}

// Run executes the loop until an output step, an abort, or the turn cap.
// A turn is counted only once the model's reply has parsed.
func (c *Controller) Run(ctx context.Context, systemPrompt, query string) RunResult {
	maxSteps := c.MaxSteps
	if maxSteps <= 0 {
		maxSteps = domain.DefaultMaxSteps
	}
	reporter := c.Reporter
	if reporter == nil {
		reporter = discardReporter{}
	}
	logger := c.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	run := &runState{
		result: RunResult{RunID: uuid.NewString(), State: domain.StateThinking},
		conv:   domain.NewConversation(systemPrompt, query),
	}

	for run.result.Turns < maxSteps {
		reply, err := c.Model.Complete(ctx, run.conv.Messages())
		if err != nil {
			reporter.Notice(fmt.Sprintf("API Error: %v", err))
			return run.abort(domain.AbortBackendError, backendError(err))
		}
		run.conv.Append(domain.RoleAssistant, reply)

		step, err := domain.ParseStep(reply)
		if err != nil {
			reporter.Notice(fmt.Sprintf("JSON Parse Error: %v", err))
			logger.Debug("unparseable reply", map[string]interface{}{"raw": reply})
			return run.abort(domain.AbortParseError, err)
		}
		run.result.Turns++

		switch s := step.(type) {
		case domain.ThinkStep:
			run.result.State = domain.StateThinking
			reporter.Step(domain.StepThink, s.Content)
		case domain.ObserveStep:
			run.result.State = domain.StateThinking
			reporter.Step(domain.StepObserve, s.Content)
		case domain.OutputStep:
			reporter.Step(domain.StepOutput, s.Content)
			return run.done(s.Content)
		case domain.ActionStep:
			run.result.State = domain.StateActingPending
			reporter.Step(domain.StepAction, fmt.Sprintf("%s(%q)", s.Tool, s.Input))
			if !c.Tools.Has(s.Tool) {
				reporter.Notice("Unknown tool: " + s.Tool)
				return run.abort(domain.AbortUnknownTool, fmt.Errorf("%w: %s", domain.ErrUnknownTool, s.Tool))
			}
			observation := c.invoke(ctx, s, reporter, logger)
			encoded, err := domain.MarshalStep(domain.ObserveStep{Content: observation})
			if err != nil {
				return run.abort(domain.AbortParseError, fmt.Errorf("%w: encode observation: %v", domain.ErrProtocolViolation, err))
			}
			run.conv.Append(domain.RoleAssistant, encoded)
			run.result.State = domain.StateObserving
		}
	}

	reporter.Notice(fmt.Sprintf("Maximum steps (%d) reached. Stopping execution.", maxSteps))
	return run.abort(domain.AbortMaxSteps, fmt.Errorf("%w (%d)", domain.ErrMaxSteps, maxSteps))
}

// invoke runs a registered tool. Tool failures become "Error: <msg>"
// observations; they never end the run.
func (c *Controller) invoke(ctx context.Context, action domain.ActionStep, reporter ports.ProgressReporter, logger ports.Logger) string {
	result, err := c.Tools.Invoke(ctx, action.Tool, action.Input)
	if err != nil {
		logger.Debug("tool failed", map[string]interface{}{"tool": action.Tool, "error": err.Error()})
		reporter.Notice("Tool execution failed: " + err.Error())
		return "Error: " + err.Error()
	}
	reporter.Notice(fmt.Sprintf("Tool %s(%q) executed successfully", action.Tool, action.Input))
	return result
}

type runState struct {
	result RunResult
	conv   *domain.Conversation
}

func (r *runState) done(output string) RunResult {
	r.result.State = domain.StateDone
	r.result.Output = output
	r.result.History = r.conv.Messages()
	return r.result
}

func (r *runState) abort(reason domain.AbortReason, err error) RunResult {
	r.result.State = domain.StateAborted
	r.result.Abort = reason
	r.result.Err = err
	r.result.History = r.conv.Messages()
	return r.result
}

func backendError(err error) error {
	if errors.Is(err, domain.ErrBackend) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrBackend, err)
}

type discardReporter struct{}

func (discardReporter) Step(domain.StepKind, string) {}
func (discardReporter) Notice(string)                {}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
