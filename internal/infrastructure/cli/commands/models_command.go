package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-agent/internal/domain"
)

// NewModelsCommand creates the models command
func NewModelsCommand(getContainer ContainerFunc) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect configured chat-completion backends",
	}

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured models",
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
			listModels(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	return modelsCmd
}

func listModels(out io.Writer, cfg domain.Config) {
	for _, model := range cfg.Models {
		marker := " "
		if model.Name == cfg.Preferences.DefaultModel {
			marker = "*"
		}
		key := "missing"
		if os.Getenv(model.AuthEnvVar) != "" {
			key = "set"
		}
		fmt.Fprintf(out, "%s %s\n", marker, model.Name)
		fmt.Fprintf(out, "    model:    %s\n", model.ModelID)
		fmt.Fprintf(out, "    endpoint: %s\n", model.BaseURL)
		fmt.Fprintf(out, "    api key:  %s (%s)\n", model.AuthEnvVar, key)
	}
}
