// Package security screens shell commands against regex danger rules.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-agent/assets"
	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/pkg/filesystem"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Guardrail implements the SecurityService port.
type Guardrail struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// DangerPattern describes a regex-based guardrail rule.
type DangerPattern struct {
	Name    string `yaml:"name" validate:"required"`
	Pattern string `yaml:"pattern" validate:"required"`
	Level   string `yaml:"level" validate:"required,oneof=low medium high critical"`
	Action  string `yaml:"action" validate:"required,oneof=warn block"`
	Message string `yaml:"message" validate:"required"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules []DangerPattern `yaml:"rules" validate:"dive"`
}

var rulesValidator = validator.New(validator.WithRequiredStructEnabled())

// NewGuardrail loads rules from path. An empty or missing path uses the
// embedded defaults.
func NewGuardrail(path string) (*Guardrail, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	return compile(rules)
}

// NewDefaultGuardrail uses the embedded rules only.
func NewDefaultGuardrail() (*Guardrail, error) {
	return NewGuardrail("")
}

func compile(rules RulesFile) (*Guardrail, error) {
	if err := rulesValidator.Struct(rules); err != nil {
		return nil, fmt.Errorf("guardrail rules: %w", err)
	}
	compiled := make([]compiledPattern, 0, len(rules.Rules))
	for _, rule := range rules.Rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("guardrail rule %s: %w", rule.Name, err)
		}
		compiled = append(compiled, compiledPattern{re: re, rule: rule})
	}
	return &Guardrail{patterns: compiled}, nil
}

// Rules returns the loaded rules in evaluation order.
func (g *Guardrail) Rules() []DangerPattern {
	out := make([]DangerPattern, 0, len(g.patterns))
	for _, p := range g.patterns {
		out = append(out, p.rule)
	}
	return out
}

// Evaluate implements ports.SecurityService. Every matching rule adds a
// reason; the level is the most severe match and any blocking rule blocks.
func (g *Guardrail) Evaluate(command string) (domain.RiskAssessment, error) {
	if g == nil {
		return domain.RiskAssessment{}, errors.New("guardrail nil")
	}
	assessment := domain.RiskAssessment{
		Level:  domain.RiskSafe,
		Action: domain.ActionAllow,
	}
	for _, pattern := range g.patterns {
		if !pattern.re.MatchString(command) {
			continue
		}
		level := parseRiskLevel(pattern.rule.Level)
		if moreSevere(level, assessment.Level) {
			assessment.Level = level
		}
		action := parseAction(pattern.rule.Action)
		if action == domain.ActionBlock || assessment.Action == domain.ActionAllow {
			assessment.Action = action
		}
		assessment.Reasons = append(assessment.Reasons, pattern.rule.Message)
		assessment.MatchedRules = append(assessment.MatchedRules, pattern.rule.Name)
	}
	return assessment, nil
}

func loadRules(path string) (RulesFile, error) {
	data := assets.DefaultGuardrailYAML
	if path != "" {
		raw, err := os.ReadFile(filesystem.ExpandPath(path))
		switch {
		case err == nil:
			data = raw
		case !errors.Is(err, fs.ErrNotExist):
			return RulesFile{}, fmt.Errorf("read guardrail rules: %w", err)
		}
	}

	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, fmt.Errorf("parse guardrail rules: %w", err)
	}
	return rules, nil
}

func parseRiskLevel(value string) domain.RiskLevel {
	switch strings.ToLower(value) {
	case "low":
		return domain.RiskLow
	case "medium":
		return domain.RiskMedium
	case "high":
		return domain.RiskHigh
	case "critical":
		return domain.RiskCritical
	default:
		return domain.RiskSafe
	}
}

func parseAction(value string) domain.GuardrailAction {
	switch strings.ToLower(value) {
	case "block":
		return domain.ActionBlock
	case "warn":
		return domain.ActionWarn
	default:
		return domain.ActionAllow
	}
}

func moreSevere(next domain.RiskLevel, current domain.RiskLevel) bool {
	order := map[domain.RiskLevel]int{
		domain.RiskSafe:     0,
		domain.RiskLow:      1,
		domain.RiskMedium:   2,
		domain.RiskHigh:     3,
		domain.RiskCritical: 4,
	}
	return order[next] > order[current]
}

var _ ports.SecurityService = (*Guardrail)(nil)
