package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-agent/internal/app"
	"github.com/doeshing/shai-agent/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// Execute builds the command tree, runs it with args and releases the
// container afterwards.
func Execute(ctx context.Context, opts Options, args []string) error {
	root, container := NewRootCmd(opts)
	defer container.Close()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd wires the cobra root command. The container is built on first
// use so that --config and --verbose are parsed before anything is loaded.
func NewRootCmd(opts Options) (*cobra.Command, *LazyContainer) {
	lazy := &LazyContainer{opts: &opts}
	getContainer := lazy.Get

	runCmd := commands.NewRunCommand(getContainer)

	root := &cobra.Command{
		Use:   "shai-agent [query]",
		Short: "shai-agent - autonomous shell agent",
		Long: "shai-agent hands a natural language task to a language model and\n" +
			"executes the file and shell commands it requests until it answers.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runCmd.RunE(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().AddFlagSet(runCmd.Flags())
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging on stderr")
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file path (default ~/.shai-agent/config.yaml)")

	root.AddCommand(
		runCmd,
		commands.NewHistoryCommand(getContainer),
		commands.NewConfigCommand(getContainer),
		commands.NewDoctorCommand(getContainer),
		commands.NewGuardrailCommand(getContainer),
		commands.NewModelsCommand(getContainer),
		commands.NewVersionCommand(),
	)
	return root, lazy
}

// LazyContainer builds the app container once, on demand.
type LazyContainer struct {
	opts *Options
	once sync.Once
	c    *app.Container
	err  error
}

// Get returns the container, building it on the first call.
func (l *LazyContainer) Get() (*app.Container, error) {
	l.once.Do(func() {
		l.c, l.err = app.BuildContainer(app.Options{
			Verbose:    l.opts.Verbose,
			ConfigPath: l.opts.ConfigPath,
		})
	})
	return l.c, l.err
}

// Close releases the container if it was built.
func (l *LazyContainer) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
