package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oakline/sitetruth/internal/api"
	"github.com/oakline/sitetruth/internal/app"
	"github.com/oakline/sitetruth/internal/progress"
	"github.com/oakline/sitetruth/internal/progress/sinks"
)

// newServeCmd creates the serve command, which exposes health, metrics, and
// run-progress endpoints. Any seed URLs given as arguments are extracted in
// the background while the server runs, so progress can be observed live.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [url...]",
		Short: "Run the operational HTTP server",
		Long: `serve starts an HTTP server with /healthz, /metrics, and /progress
endpoints. Seed URLs passed as arguments are crawled sequentially in the
background; the server keeps running until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			registry := prometheus.NewRegistry()
			promSink, err := sinks.NewPrometheusSink(registry)
			if err != nil {
				return fmt.Errorf("register metrics: %w", err)
			}
			memSink := sinks.NewMemorySink(0)
			hub := progress.NewHub(
				progress.HubConfig{Logger: logger},
				sinks.NewLogSink(logger),
				promSink,
				memSink,
			)

			a, err := app.New(cfg, logger, hub)
			if err != nil {
				return fmt.Errorf("initialize pipeline: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.New(cfg.Server.Port, registry, memSink, logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			logger.Info("serving", zap.Int("port", cfg.Server.Port))

			go func() {
				for _, seed := range args {
					if ctx.Err() != nil {
						return
					}
					if _, err := a.Run(ctx, seed); err != nil {
						logger.Error("extraction failed",
							zap.String("seed", seed), zap.Error(err))
					}
				}
			}()

			var srvErr error
			select {
			case <-ctx.Done():
			case srvErr = <-errCh:
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown", zap.Error(err))
			}
			if err := a.Close(shutdownCtx); err != nil {
				logger.Warn("close pipeline", zap.Error(err))
			}
			if err := hub.Close(shutdownCtx); err != nil {
				logger.Warn("close progress hub", zap.Error(err))
			}
			return srvErr
		},
	}
}
