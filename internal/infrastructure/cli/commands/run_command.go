package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-agent/internal/app"
	"github.com/doeshing/shai-agent/internal/application/agent"
	"github.com/doeshing/shai-agent/internal/infrastructure/cli/helpers"
)

// NewRunCommand creates the run command, the agent entry point.
func NewRunCommand(getContainer ContainerFunc) *cobra.Command {
	var (
		model    string
		markdown bool
		workDir  string
	)

	cmd := &cobra.Command{
		Use:   "run [query...]",
		Short: "Run the agent on a natural language task",
		Long: "Run drives the model through think, action, observe and output steps,\n" +
			"executing the commands it asks for in the working directory.\n" +
			"Without a query a demo task is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := getContainer()
			if err != nil {
				return err
			}
			req := agent.Request{
				Query:         strings.TrimSpace(strings.Join(args, " ")),
				ModelOverride: model,
				WorkDir:       workDir,
			}
			if req.Query == "" {
				req.Query = agent.DefaultQuery
			}
			useMarkdown, err := markdownEnabled(cmd, container, markdown)
			if err != nil {
				return err
			}
			return runAgent(cmd.Context(), cmd.OutOrStdout(), container, req, useMarkdown)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the final answer as markdown (default from config)")
	cmd.Flags().StringVarP(&workDir, "dir", "C", "", "Working directory for executed commands")

	return cmd
}

func markdownEnabled(cmd *cobra.Command, container *app.Container, flag bool) (bool, error) {
	if cmd.Flags().Changed("markdown") {
		return flag, nil
	}
	cfg, err := container.ConfigLoader.Load(cmd.Context())
	if err != nil {
		return false, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg.Preferences.Markdown, nil
}

// runAgent executes one run and maps its outcome to an error: nil only
// when the model produced an output step.
func runAgent(ctx context.Context, out io.Writer, container *app.Container, req agent.Request, markdown bool) error {
	renderer := helpers.NewRenderer(out, markdown)

	svc, closeHistory, err := container.AgentService(ctx, renderer)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeHistory(); err != nil {
			container.Logger.Warn("failed to close history store", map[string]interface{}{"error": err.Error()})
		}
	}()

	renderer.User(req.Query)
	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	renderer.Completed()

	if result.Done() {
		return nil
	}
	if result.Err != nil {
		return fmt.Errorf("run %s aborted (%s): %w", result.RunID, result.Abort, result.Err)
	}
	return fmt.Errorf("run %s aborted (%s)", result.RunID, result.Abort)
}
