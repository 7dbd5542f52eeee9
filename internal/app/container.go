package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/doeshing/shai-agent/assets"
	"github.com/doeshing/shai-agent/internal/application/agent"
	"github.com/doeshing/shai-agent/internal/application/doctor"
	"github.com/doeshing/shai-agent/internal/infrastructure/ai"
	"github.com/doeshing/shai-agent/internal/infrastructure/config"
	"github.com/doeshing/shai-agent/internal/infrastructure/history"
	"github.com/doeshing/shai-agent/internal/infrastructure/security"
	"github.com/doeshing/shai-agent/internal/infrastructure/tools"
	"github.com/doeshing/shai-agent/internal/pkg/logger"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Options controls how the container is built.
type Options struct {
	Verbose    bool
	ConfigPath string
	// EnvFile is loaded into the process environment before anything else;
	// ".env" when empty. A missing file is ignored.
	EnvFile string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Logger        *logger.ZapLogger
	ConfigLoader  *config.FileLoader
	ModelFactory  ports.ModelFactory
	Toolbox       *tools.Toolbox
	DoctorService *doctor.Service
	SystemPrompt  string
}

// BuildContainer constructs the dependency graph. Nothing is loaded from
// disk beyond the .env file; configuration is read per command.
func BuildContainer(opts Options) (*Container, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	log, err := logger.New(opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	cfgLoader := config.NewFileLoader(opts.ConfigPath)

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		LoadGuardrail: func(rulesFile string) (ports.SecurityService, error) {
			guard, err := security.NewGuardrail(rulesFile)
			if err != nil {
				return nil, err
			}
			return guard, nil
		},
		CheckHistory: checkHistory,
		GOOS:         runtime.GOOS,
	}

	return &Container{
		Logger:        log,
		ConfigLoader:  cfgLoader,
		ModelFactory:  ai.NewFactory(),
		Toolbox:       &tools.Toolbox{Logger: log},
		DoctorService: doctorService,
		SystemPrompt:  assets.DefaultSystemPrompt,
	}, nil
}

// AgentService assembles an agent service reporting to reporter. The
// returned closer releases the history store and must be called once the
// run is over. A history store that cannot be opened is logged and the run
// proceeds without persistence.
func (c *Container) AgentService(ctx context.Context, reporter ports.ProgressReporter) (*agent.Service, func() error, error) {
	svc := &agent.Service{
		ConfigProvider: c.ConfigLoader,
		ModelFactory:   c.ModelFactory,
		Toolbox:        c.Toolbox,
		Reporter:       reporter,
		Logger:         c.Logger,
		SystemPrompt:   c.SystemPrompt,
	}
	closer := func() error { return nil }

	cfg, err := c.ConfigLoader.Load(ctx)
	if err != nil {
		return nil, closer, fmt.Errorf("load config: %w", err)
	}
	if !cfg.History.Enabled {
		return svc, closer, nil
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		c.Logger.Warn("history disabled for this run", map[string]interface{}{
			"path":  cfg.History.Path,
			"error": err.Error(),
		})
		return svc, closer, nil
	}
	svc.History = store
	return svc, store.Close, nil
}

// OpenHistory opens the configured run store. The caller owns the store.
func (c *Container) OpenHistory(ctx context.Context) (*history.SQLiteStore, error) {
	cfg, err := c.ConfigLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// Close flushes the logger.
func (c *Container) Close() error {
	if c.Logger == nil {
		return nil
	}
	// stderr sync fails with EINVAL on some terminals; nothing to recover.
	_ = c.Logger.Sync()
	return nil
}

func checkHistory(path string) error {
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	return store.Close()
}
