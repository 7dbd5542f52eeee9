package tools

import (
	"fmt"
	"strings"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/infrastructure/command"
	"github.com/doeshing/shai-agent/internal/infrastructure/security"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Toolbox builds a new command engine and registry for every run.
type Toolbox struct {
	Logger ports.Logger
	// Guardrail overrides the rules loaded from config when set.
	Guardrail ports.SecurityService
	// Platform overrides the detected GOOS when set.
	Platform string
}

// ForRun implements ports.ToolboxFactory.
func (t *Toolbox) ForRun(cfg domain.Config, workDir string) (ports.ToolRegistry, error) {
	opts := []command.Option{
		command.WithTimeout(cfg.Agent.CommandTimeout()),
		command.WithLogger(t.Logger),
	}
	if t.Platform != "" {
		opts = append(opts, command.WithPlatform(t.Platform))
	}
	if shell := strings.TrimSpace(cfg.Agent.Shell); shell != "" {
		opts = append(opts, command.WithShell(shell, shellFlag(shell)))
	}
	if cfg.Security.Enabled {
		guard := t.Guardrail
		if guard == nil {
			loaded, err := security.NewGuardrail(cfg.Security.RulesFile)
			if err != nil {
				return nil, fmt.Errorf("load guardrail: %w", err)
			}
			guard = loaded
		}
		opts = append(opts, command.WithGuardrail(guard))
	}

	engine, err := command.NewEngine(workDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("command engine: %w", err)
	}
	return Default(engine)
}

func shellFlag(shell string) string {
	base := strings.ToLower(shell)
	if strings.HasSuffix(base, "cmd.exe") || strings.HasSuffix(base, "cmd") {
		return "/c"
	}
	if strings.Contains(base, "powershell") || strings.Contains(base, "pwsh") {
		return "-Command"
	}
	return "-c"
}

var _ ports.ToolboxFactory = (*Toolbox)(nil)
