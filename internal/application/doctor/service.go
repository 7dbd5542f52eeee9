package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	// LoadGuardrail compiles the configured rules file.
	LoadGuardrail func(rulesFile string) (ports.SecurityService, error)
	// CheckHistory opens the history database at path.
	CheckHistory func(path string) error
	// LookPath resolves executables; exec.LookPath when nil.
	LookPath func(string) (string, error)
	GOOS     string
}

// Run executes checks and returns a report. The error joins every failed
// check.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded (format %s)", cfg.ConfigFormatVersion)))

	// Checks are independent; each writes its own slot so report order is
	// stable.
	pending := []func() domain.HealthCheck{
		func() domain.HealthCheck { return apiCheck(cfg) },
		func() domain.HealthCheck { return s.shellCheck(cfg.Agent.Shell) },
		func() domain.HealthCheck { return s.guardrailCheck(cfg.Security) },
		func() domain.HealthCheck { return s.historyCheck(cfg.History) },
	}
	results := make([]domain.HealthCheck, len(pending))
	var g errgroup.Group
	for i, check := range pending {
		g.Go(func() error {
			results[i] = check()
			return nil
		})
	}
	_ = g.Wait()
	checks = append(checks, results...)

	report := domain.HealthReport{Checks: checks}
	return report, reportError(report)
}

func (s *Service) guardrailCheck(settings domain.SecuritySettings) domain.HealthCheck {
	switch {
	case !settings.Enabled:
		return warn("Guardrail", "disabled in config")
	case s.LoadGuardrail == nil:
		return warn("Guardrail", "loader not configured")
	}
	guard, err := s.LoadGuardrail(settings.RulesFile)
	if err != nil {
		return fail("Guardrail", err.Error())
	}
	if _, err := guard.Evaluate("ls"); err != nil {
		return fail("Guardrail", err.Error())
	}
	return ok("Guardrail", "rules loaded")
}

func (s *Service) historyCheck(settings domain.HistorySettings) domain.HealthCheck {
	switch {
	case !settings.Enabled:
		return warn("History", "disabled in config")
	case s.CheckHistory == nil:
		return warn("History", "store not configured")
	}
	if err := s.CheckHistory(settings.Path); err != nil {
		return fail("History", err.Error())
	}
	return ok("History", settings.Path)
}

func apiCheck(cfg domain.Config) domain.HealthCheck {
	model, err := cfg.GetDefaultModel()
	if err != nil {
		return fail("API key", err.Error())
	}
	if strings.TrimSpace(os.Getenv(model.AuthEnvVar)) == "" {
		return fail("API key", fmt.Sprintf("%s missing for model %s", model.AuthEnvVar, model.Name))
	}
	var missing []string
	for _, other := range cfg.Models {
		if other.Name != model.Name && os.Getenv(other.AuthEnvVar) == "" {
			missing = append(missing, other.AuthEnvVar)
		}
	}
	if len(missing) > 0 {
		return warn("API key", fmt.Sprintf("%s set; missing for other models: %s", model.AuthEnvVar, strings.Join(missing, ", ")))
	}
	return ok("API key", model.AuthEnvVar+" set")
}

func (s *Service) shellCheck(configured string) domain.HealthCheck {
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	goos := s.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	candidates := []string{configured}
	if configured == "" {
		candidates = []string{"/bin/bash", "/bin/sh"}
		if goos == "windows" {
			candidates = []string{"cmd.exe"}
		}
	}
	for _, candidate := range candidates {
		if path, err := lookPath(candidate); err == nil {
			details := path
			if goos == "windows" {
				details += " (pipes and redirects disabled)"
			}
			return ok("Shell", details)
		}
	}
	return fail("Shell", fmt.Sprintf("none of %s found", strings.Join(candidates, ", ")))
}

func reportError(report domain.HealthReport) error {
	var errs []error
	for _, check := range report.Checks {
		if check.Status == domain.HealthError {
			errs = append(errs, fmt.Errorf("%s: %s", check.Name, check.Details))
		}
	}
	return errors.Join(errs...)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
