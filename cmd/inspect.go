package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	reporttoml "github.com/jdecomp/jdecomp/internal/adapters/report/toml"
	"github.com/jdecomp/jdecomp/internal/domain"
)

func newInspectCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <class-file>...",
		Short: "Summarize class files as a TOML report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries := make([]domain.ClassSummary, 0, len(args))
			for _, input := range args {
				summary, err := a.service.Inspect(cmd.Context(), input)
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
			}

			if output == "" {
				return reporttoml.Encode(cmd.OutOrStdout(), summaries...)
			}

			if err := reporttoml.WriteFile(output, summaries...); err != nil {
				return fmt.Errorf("write report %q: %w", output, err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")

	return cmd
}
