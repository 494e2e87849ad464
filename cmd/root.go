package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdecomp/jdecomp/internal/adapters/config"
	dumpadapter "github.com/jdecomp/jdecomp/internal/adapters/render/dump"
	"github.com/jdecomp/jdecomp/internal/domain"
)

type rootOptions struct {
	configPath string
	verbose    bool
	color      string
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cfg := viper.New()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "jdecomp <class-file-in> <java-file-out>",
		Short: "jdecomp: reconstruct Java source from class files",
		Long: "jdecomp decompiles a Java class file into Java-like source. It prints the block structure " +
			"before and after each line number correction, then writes the source with lines placed at " +
			"their original line numbers where possible.",
		Args:          usageArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfg, opts.configPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), loaded.LogLevel, opts.verbose)
			if err != nil {
				return err
			}

			color, err := colorEnabled(cmd.OutOrStdout(), opts.color)
			if err != nil {
				return err
			}

			*a = *wireApp(loaded, logger)
			a.color = color
			a.progress = isTerminal(cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompile(cmd, a, args[0], args[1])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.jdecomp/config.toml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug messages to stderr")
	flags.StringVar(&opts.color, "color", colorAuto, "color dumps: auto, always or never")
	flags.StringSlice("classpath", nil, "directories and jars used to resolve imports")
	flags.String("indent", "    ", "indentation unit of the written source")
	flags.String("line-separator", config.SeparatorPlatform, "line separator: platform, lf or crlf")
	flags.Bool("respect-line-numbers", true, "place lines at their original line numbers")
	flags.Bool("dump-line-numbers", true, "prefix written lines with their original line number")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")

	for key, flag := range map[string]string{
		config.ClassPathKey:          "classpath",
		config.IndentKey:             "indent",
		config.LineSeparatorKey:      "line-separator",
		config.RespectLineNumbersKey: "respect-line-numbers",
		config.DumpLineNumbersKey:    "dump-line-numbers",
		config.LogLevelKey:           "log-level",
	} {
		_ = cfg.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newInspectCmd(a),
		newBatchCmd(a),
	)

	return rootCmd
}

// usageArgs rejects invocations lacking an input and an output path before
// anything is read or written.
func usageArgs(_ *cobra.Command, args []string) error {
	if len(args) < 2 {
		return domain.ErrUsage
	}

	return nil
}

func runDecompile(cmd *cobra.Command, a *app, input, output string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rec, err := a.service.Reconstruct(ctx, input)
	if err != nil {
		return err
	}

	for _, stage := range rec.Stages {
		rendered, err := a.dumpRenderer(stage, dumpadapter.Options{Color: a.color})
		if err != nil {
			return fmt.Errorf("render %s dump: %w", stage.Stage, err)
		}
		if _, err := fmt.Fprint(out, rendered); err != nil {
			return err
		}
	}

	if err := a.service.WriteSource(ctx, output, rec.Lines, a.cfg.Output); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Wrote %s\n", output)
	return err
}
