// Package domain defines core entities and value objects for shai-agent.
//
// The domain layer is independent of infrastructure concerns: it holds the
// step protocol spoken with the model, the command intents the engine
// recognises, execution results, the error taxonomy, and configuration.
package domain

import "time"

// ModelDefinition describes an OpenAI-compatible chat-completion backend.
type ModelDefinition struct {
	Name        string  `yaml:"name" validate:"required"`
	BaseURL     string  `yaml:"base_url" validate:"required,url"`
	AuthEnvVar  string  `yaml:"auth_env_var" validate:"required"`
	ModelID     string  `yaml:"model_id" validate:"required"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	TopP        float64 `yaml:"top_p" validate:"gte=0,lte=1"`
}

// Defaults shared by the config loader and the engine.
const (
	DefaultMaxSteps       = 20
	DefaultCommandTimeout = 30 * time.Second
	DefaultMaxTokens      = 4000
	DefaultTemperature    = 0.3
	DefaultTopP           = 0.9

	DirectoryPermissions  = 0o755
	FilePermissions       = 0o644
	SecureFilePermissions = 0o600

	TimestampFormat = time.RFC3339
)
