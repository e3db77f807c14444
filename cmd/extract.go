package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oakline/sitetruth/internal/app"
	"github.com/oakline/sitetruth/internal/crawler"
	"github.com/oakline/sitetruth/internal/progress"
	"github.com/oakline/sitetruth/internal/progress/sinks"
)

// newExtractCmd creates the extract command, which runs one full
// crawl-extract-resolve pipeline against a seed URL.
func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Crawl one site and write its truth record",
		Long: `extract crawls the site rooted at the given URL within the configured
page, depth, and time budgets, then writes truth.json, crawl.json, and
summary.csv to the output directory.`,
		Args: cobra.ExactArgs(1),
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

			hub := progress.NewHub(
				progress.HubConfig{Logger: logger},
				sinks.NewLogSink(logger),
			)

			a, err := app.New(cfg, logger, hub)
			if err != nil {
				return fmt.Errorf("initialize pipeline: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec, runErr := a.Run(ctx, args[0])

			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Close(closeCtx); err != nil {
				logger.Warn("close pipeline", zap.Error(err))
			}
			if err := hub.Close(closeCtx); err != nil {
				logger.Warn("close progress hub", zap.Error(err))
			}

			if runErr != nil {
				if errors.Is(runErr, crawler.ErrInvalidSeed) || errors.Is(runErr, crawler.ErrSeedDisallowed) {
					return fmt.Errorf("cannot crawl %s: %w", args[0], runErr)
				}
				return runErr
			}
			logger.Info("extraction complete",
				zap.String("business_id", rec.BusinessID),
				zap.String("domain", rec.Domain),
				zap.Int("pages_visited", rec.PagesVisited),
				zap.String("output_dir", cfg.Output.Dir))
			return nil
		},
	}
}
