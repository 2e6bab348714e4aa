package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/changes"
	"github.com/Trust914/MivaFocus-Extension/internal/metrics"
	"github.com/Trust914/MivaFocus-Extension/internal/storage/local"
)

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the catalog once and write it to disk",
		Long: `Runs a single crawl of the site and writes the assembled catalog
JSON to the output directory, without change detection or changelog
updates.`,
		RunE: runScrape,
	}
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	s, cleanup, err := buildScraper(cfg, logger, m)
	if err != nil {
		return err
	}
	defer cleanup()

	cat, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	cat.Metadata.Fingerprint = changes.Fingerprint(cat)

	store, err := local.New(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("init output store: %w", err)
	}
	data, err := cat.Encode()
	if err != nil {
		return err
	}
	if err := store.Save(context.WithoutCancel(ctx), cfg.Output.CatalogFile, data); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	logger.Info("catalog written",
		zap.String("path", store.Path(cfg.Output.CatalogFile)),
		zap.Int("departments", cat.DepartmentCount()),
		zap.Int("courses", cat.TotalCourses()),
	)
	return nil
}
