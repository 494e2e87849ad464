package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	reporttoml "github.com/jdecomp/jdecomp/internal/adapters/report/toml"
	"github.com/jdecomp/jdecomp/internal/application"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		workers int
		index   string
	)

	cmd := &cobra.Command{
		Use:   "batch <class-dir-or-jar> <output-dir>",
		Short: "Decompile every class of a directory tree or jar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := application.BatchCommand{
				Source:    args[0],
				OutputDir: args[1],
				Options:   a.cfg.Output,
				Workers:   workers,
			}

			var result application.BatchResult
			run := func(ctx context.Context, progress application.BatchProgress) error {
				var err error
				result, err = a.service.DecompileAll(ctx, batch, progress)
				return err
			}

			var runErr error
			if a.progress {
				runErr = runBatchSpinner(cmd.Context(), cmd.ErrOrStderr(), run)
			} else {
				runErr = run(cmd.Context(), nil)
			}

			written := len(result.Items) - result.Failed()
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Decompiled %d of %d classes into %s\n", written, len(result.Items), batch.OutputDir); err != nil {
				return err
			}

			if index != "" && written > 0 {
				if err := reporttoml.MergeFile(index, result.Summaries()...); err != nil {
					return fmt.Errorf("update report %q: %w", index, err)
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", index); err != nil {
					return err
				}
			}

			return runErr
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "j", runtime.GOMAXPROCS(0), "classes decompiled concurrently")
	cmd.Flags().StringVar(&index, "index", "", "merge a TOML report of the decompiled classes into this file")

	return cmd
}
