package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/tandem/internal/cli"
	tandemhttp "github.com/aretw0/tandem/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the engine over a JSON API:

  POST /v1/runs     run a request and return the transcript
  GET  /v1/events   server-sent engine events (optional ?run_id=)
  GET  /v1/runs     recorded runs (when history is enabled)
  GET  /v1/graph    Mermaid diagram of the workflow
  GET  /metrics     Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		runTimeout, _ := cmd.Flags().GetDuration("run-timeout")

		streams := tandemhttp.NewStreamManager(logger)
		components, err := cli.Build(ctx, cli.Options{Config: cfg, Logger: logger, Hooks: streams.Hooks()})
		if err != nil {
			return err
		}
		defer func() {
			if err := components.Close(); err != nil {
				logger.Warn("failed to release resources", "err", err)
			}
		}()

		opts := []tandemhttp.Option{
			tandemhttp.WithStreams(streams),
			tandemhttp.WithMetricsHandler(components.Metrics.Handler()),
			tandemhttp.WithLogger(logger),
			tandemhttp.WithRunTimeout(runTimeout),
		}
		if components.Runs != nil {
			opts = append(opts, tandemhttp.WithHistory(components.Runs.Store()))
		}
		handler := tandemhttp.NewHandler(components.Asker(), opts...)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("tandem server listening", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("tandem server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().Duration("run-timeout", tandemhttp.DefaultRunTimeout, "Upper bound for a single run; 0 disables it")
}
