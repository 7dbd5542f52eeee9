package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-agent/assets"
	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/pkg/filesystem"
	"github.com/doeshing/shai-agent/internal/ports"
)

// EnvConfigPath overrides the config location.
const EnvConfigPath = "SHAI_AGENT_CONFIG"

// FileLoader loads YAML configuration from ~/.shai-agent/config.yaml (overridable via SHAI_AGENT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := ensureConfigDir(path); err != nil {
			return domain.Config{}, fmt.Errorf("create config dir: %w", err)
		}
		if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
		data = assets.DefaultConfigYAML
	}

	return Parse(data)
}

// Parse decodes, hydrates and validates raw YAML.
func Parse(data []byte) (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: parse config: %v", domain.ErrConfiguration, err)
	}
	cfg = hydrateDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() (domain.Config, error) {
	return Parse(assets.DefaultConfigYAML)
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filesystem.AppPath("config.yaml")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Preferences.DefaultModel == "" && len(cfg.Models) > 0 {
		cfg.Preferences.DefaultModel = cfg.Models[0].Name
	}
	for i := range cfg.Models {
		if cfg.Models[i].MaxTokens == 0 {
			cfg.Models[i].MaxTokens = domain.DefaultMaxTokens
		}
		if cfg.Models[i].TopP == 0 {
			cfg.Models[i].TopP = domain.DefaultTopP
		}
	}
	if cfg.Agent.MaxSteps == 0 {
		cfg.Agent.MaxSteps = domain.DefaultMaxSteps
	}
	if cfg.Agent.CommandTimeoutSeconds == 0 {
		cfg.Agent.CommandTimeoutSeconds = int(domain.DefaultCommandTimeout.Seconds())
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filesystem.AppPath("history.db")
	} else {
		cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
