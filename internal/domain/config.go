package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config mirrors ~/.shai-agent/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Models              []ModelDefinition `yaml:"models" validate:"required,min=1,dive"`
	Agent               AgentSettings     `yaml:"agent"`
	Security            SecuritySettings  `yaml:"security"`
	History             HistorySettings   `yaml:"history"`
}

// Preferences captures user level toggles.
type Preferences struct {
	DefaultModel string `yaml:"default_model" validate:"required"`
	Markdown     bool   `yaml:"markdown"`
}

// AgentSettings bounds the turn loop and the command engine.
type AgentSettings struct {
	MaxSteps              int    `yaml:"max_steps" validate:"gte=1,lte=200"`
	CommandTimeoutSeconds int    `yaml:"command_timeout" validate:"gte=1"`
	Shell                 string `yaml:"shell"`
}

// SecuritySettings defines guardrail behavior for raw shell commands.
type SecuritySettings struct {
	Enabled   bool   `yaml:"enabled"`
	RulesFile string `yaml:"rules_file"`
}

// HistorySettings controls run persistence.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CommandTimeout returns the raw shell timeout as a duration.
func (a AgentSettings) CommandTimeout() time.Duration {
	if a.CommandTimeoutSeconds <= 0 {
		return DefaultCommandTimeout
	}
	return time.Duration(a.CommandTimeoutSeconds) * time.Second
}

// GetDefaultModel retrieves the default model definition from configuration.
func (c *Config) GetDefaultModel() (ModelDefinition, error) {
	if c.Preferences.DefaultModel == "" {
		return ModelDefinition{}, fmt.Errorf("no default model configured")
	}
	model, ok := c.FindModelByName(c.Preferences.DefaultModel)
	if !ok {
		return ModelDefinition{}, fmt.Errorf("default model %s not found in configuration", c.Preferences.DefaultModel)
	}
	return model, nil
}

// FindModelByName searches for a model by its name.
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}

// PickModel resolves an override name, falling back to the default model.
func (c *Config) PickModel(override string) (ModelDefinition, error) {
	if override == "" {
		return c.GetDefaultModel()
	}
	model, ok := c.FindModelByName(override)
	if !ok {
		return ModelDefinition{}, fmt.Errorf("model %s not configured", override)
	}
	return model, nil
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and that the default model is defined.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if _, err := c.GetDefaultModel(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
