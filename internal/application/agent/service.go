package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// DefaultQuery is used when the caller supplies none.
const DefaultQuery = `Create a folder "TODO App" and create HTML, CSS and JS files for a working ToDo App`

// Request describes one agent run.
type Request struct {
	Query         string
	ModelOverride string
	// WorkDir roots the run's command engine; empty means the process
	// working directory.
	WorkDir string
}

// Service wires configuration, the model backend and a per-run toolbox
// into a Controller, and records the finished run.
type Service struct {
	ConfigProvider ports.ConfigProvider
	ModelFactory   ports.ModelFactory
	Toolbox        ports.ToolboxFactory
	History        ports.HistoryRepository
	Reporter       ports.ProgressReporter
	Logger         ports.Logger
	SystemPrompt   string
	Now            func() time.Time
}

// Run executes one query. The returned error covers setup failures only
// (configuration, backend construction); how the loop itself ended is
// reported in RunResult.
func (s *Service) Run(ctx context.Context, req Request) (RunResult, error) {
	if s.ConfigProvider == nil || s.ModelFactory == nil || s.Toolbox == nil || s.Logger == nil {
		return RunResult{}, errors.New("agent.Service dependencies not satisfied")
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("load config: %w", err)
	}

	modelDef, err := cfg.PickModel(req.ModelOverride)
	if err != nil {
		return RunResult{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	model, err := s.ModelFactory.ForModel(modelDef)
	if err != nil {
		return RunResult{}, err
	}

	workDir := req.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return RunResult{}, fmt.Errorf("resolve working directory: %w", err)
		}
	}
	registry, err := s.Toolbox.ForRun(cfg, workDir)
	if err != nil {
		return RunResult{}, fmt.Errorf("build tools: %w", err)
	}

	query := req.Query
	if query == "" {
		query = DefaultQuery
	}

	controller := &Controller{
		Model:    model,
		Tools:    registry,
		Reporter: s.Reporter,
		Logger:   s.Logger,
		MaxSteps: cfg.Agent.MaxSteps,
	}

	s.Logger.Info("starting run", map[string]interface{}{
		"model":     modelDef.Name,
		"model_id":  modelDef.ModelID,
		"max_steps": cfg.Agent.MaxSteps,
		"work_dir":  workDir,
	})
	started := now()
	result := controller.Run(ctx, s.SystemPrompt, query)
	finished := now()

	fields := map[string]interface{}{
		"run_id": result.RunID,
		"state":  string(result.State),
		"turns":  result.Turns,
	}
	if result.Abort != domain.AbortNone {
		fields["abort"] = string(result.Abort)
	}
	s.Logger.Info("run finished", fields)

	if s.History != nil && cfg.History.Enabled {
		s.record(ctx, query, modelDef, result, started, finished)
	}
	return result, nil
}

// record persists the run. Storage failures are logged and never change the
// run outcome.
func (s *Service) record(ctx context.Context, query string, model domain.ModelDefinition, result RunResult, started, finished time.Time) {
	rec := domain.RunRecord{
		ID:          result.RunID,
		Query:       query,
		Model:       model.Name,
		State:       result.State,
		AbortReason: result.Abort,
		Output:      result.Output,
		Turns:       result.Turns,
		StartedAt:   started,
		FinishedAt:  finished,
		Messages:    result.History,
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	// Saved even when ctx was cancelled mid-run.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.History.Save(saveCtx, rec); err != nil {
		s.Logger.Warn("failed to save run history", map[string]interface{}{
			"run_id": result.RunID,
			"error":  err.Error(),
		})
	}
}
