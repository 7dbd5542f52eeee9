package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/infrastructure/security"
)

// NewGuardrailCommand creates the guardrail command with inspection subcommands
func NewGuardrailCommand(getContainer ContainerFunc) *cobra.Command {
	guardrailCmd := &cobra.Command{
		Use:   "guardrail",
		Short: "Inspect the raw shell guardrail",
	}

	guardrailCmd.AddCommand(
		newGuardrailRulesCommand(getContainer),
		newGuardrailCheckCommand(getContainer),
	)

	return guardrailCmd
}

// newGuardrailRulesCommand creates the 'guardrail rules' subcommand
func newGuardrailRulesCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the active danger patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, enabled, err := loadGuardrail(cmd, getContainer)
			if err != nil {
				return err
			}
			listRules(cmd.OutOrStdout(), guard, enabled)
			return nil
		},
	}
}

// newGuardrailCheckCommand creates the 'guardrail check' subcommand
func newGuardrailCheckCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "check <command...>",
		Short: "Evaluate a shell command without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, _, err := loadGuardrail(cmd, getContainer)
			if err != nil {
				return err
			}
			risk, err := guard.Evaluate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			printAssessment(cmd.OutOrStdout(), risk)
			return nil
		},
	}
}

func loadGuardrail(cmd *cobra.Command, getContainer ContainerFunc) (*security.Guardrail, bool, error) {
	container, err := getContainer()
	if err != nil {
		return nil, false, err
	}
	cfg, err := container.ConfigLoader.Load(cmd.Context())
	if err != nil {
		return nil, false, fmt.Errorf("failed to load configuration: %w", err)
	}
	guard, err := security.NewGuardrail(cfg.Security.RulesFile)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load guardrail rules: %w", err)
	}
	return guard, cfg.Security.Enabled, nil
}

func listRules(out io.Writer, guard *security.Guardrail, enabled bool) {
	if !enabled {
		fmt.Fprintln(out, "Guardrail is disabled in config; rules below are not applied.")
	}
	for _, rule := range guard.Rules() {
		fmt.Fprintf(out, "%-18s %-8s %-6s %s\n", rule.Name, rule.Level, rule.Action, rule.Message)
	}
}

func printAssessment(out io.Writer, risk domain.RiskAssessment) {
	fmt.Fprintf(out, "Risk: %s (%s)\n", strings.ToUpper(string(risk.Level)), risk.Action)
	for _, reason := range risk.Reasons {
		fmt.Fprintf(out, " - %s\n", reason)
	}
}
