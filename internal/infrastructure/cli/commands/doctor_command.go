package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-agent/internal/domain"
)

var healthTags = map[domain.HealthStatus]string{
	domain.HealthOK:    "OK",
	domain.HealthWarn:  "WARN",
	domain.HealthError: "FAIL",
}

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := getContainer()
			if err != nil {
				return err
			}
			if container.DoctorService == nil {
				return fmt.Errorf("doctor service unavailable")
			}

			report, err := container.DoctorService.Run(cmd.Context())
			// The report is printed even when checks failed.
			displayDoctorReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			return nil
		},
	}
}

func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		tag, ok := healthTags[check.Status]
		if !ok {
			tag = string(check.Status)
		}
		fmt.Fprintf(out, "[%s] %s - %s\n", tag, check.Name, check.Details)
	}
}
