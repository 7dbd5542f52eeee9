package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-agent/assets"
	"github.com/doeshing/shai-agent/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(getContainer ContainerFunc) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect shai-agent configuration",
	}

	configCmd.AddCommand(
		newConfigShowCommand(getContainer),
		newConfigPathCommand(getContainer),
		newConfigValidateCommand(getContainer),
		newConfigDefaultCommand(),
	)

	return configCmd
}

// newConfigShowCommand creates the 'config show' subcommand
func newConfigShowCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := getContainer()
			if err != nil {
				return err
			}
			cfg, err := container.ConfigLoader.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// newConfigPathCommand creates the 'config path' subcommand
func newConfigPathCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := getContainer()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
			return nil
		},
	}
}

// newConfigValidateCommand creates the 'config validate' subcommand
func newConfigValidateCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := getContainer()
			if err != nil {
				return err
			}
			if _, err := container.ConfigLoader.Load(cmd.Context()); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
			return nil
		},
	}
}

// newConfigDefaultCommand creates the 'config default' subcommand
func newConfigDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDefaultConfig(cmd.OutOrStdout())
		},
	}
}

func printDefaultConfig(out io.Writer) error {
	// Parse first so a broken embedded file is reported, not printed.
	if _, err := config.Parse(assets.DefaultConfigYAML); err != nil {
		return fmt.Errorf("embedded default configuration: %w", err)
	}
	_, err := out.Write(assets.DefaultConfigYAML)
	return err
}
