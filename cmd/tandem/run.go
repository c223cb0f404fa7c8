package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/tandem/internal/cli"
	"github.com/aretw0/tandem/internal/presentation/tui"
	"github.com/aretw0/tandem/pkg/runner"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Run the research and chart agents",
	Long: `Runs one request when given as arguments, e.g.

  tandem run "Fetch the UK's GDP over the past 3 years, then draw a line graph of it."

Without arguments an interactive session reads one request per line until
"exit", "quit" or end of input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		showRequest, _ := cmd.Flags().GetBool("show-request")
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		if cmd.Flags().Changed("confirm") {
			cfg.Code.Confirm, _ = cmd.Flags().GetBool("confirm")
		}

		interactive := !jsonMode && runner.IsTerminal(os.Stdout)

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			opts := []runner.TextHandlerOption{runner.WithTextHandlerVerbose(verbose)}
			if interactive {
				opts = append(opts,
					runner.WithTextHandlerRenderer(tui.NewRenderer(100)),
					runner.WithTextHandlerLabel(tui.RoleLabel),
				)
			}
			handler = runner.NewTextHandler(os.Stdin, os.Stdout, opts...)
		}

		r := runner.New(handler, runner.WithLogger(logger), runner.WithShowRequest(showRequest))

		buildOpts := cli.Options{Config: cfg, Logger: logger, Hooks: r.Hooks()}
		if !jsonMode {
			buildOpts.Confirm = handler
		}
		components, err := cli.Build(ctx, buildOpts)
		if err != nil {
			return err
		}
		defer func() {
			if err := components.Close(); err != nil {
				logger.Warn("failed to release resources", "err", err)
			}
		}()

		if len(args) > 0 {
			_, err := r.RunOnce(ctx, components.Asker(), strings.Join(args, " "))
			return err
		}

		if interactive && !noBanner {
			tui.PrintBanner(os.Stdout)
		}
		if err := r.Loop(ctx, components.Asker()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("verbose", "v", false, "Print agent and tool progress")
	runCmd.Flags().Bool("show-request", false, "Repeat the request at the top of the transcript")
	runCmd.Flags().Bool("confirm", false, "Ask before running generated code (overrides code.confirm)")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner in interactive sessions")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
