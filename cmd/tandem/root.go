package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/tandem/internal/cli"
	"github.com/aretw0/tandem/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tandem",
	Short: "Tandem researches data on the web and draws charts of it",
	Long: `Tandem runs two agents in turn: a researcher with web search and a chart
generator that writes and runs Python. The chart generator hands control back
to the researcher while its reply contains QUESTION_TO_RESEARCHER; the run ends
with its first reply that does not.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (default ./tandem.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// setup loads the configuration and builds the process logger,
// applying the persistent flag overrides.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, used, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	if used != "" {
		logger.Debug("configuration loaded", "path", used)
	}
	return cfg, logger, nil
}
