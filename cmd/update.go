package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/actions"
	"github.com/Trust914/MivaFocus-Extension/internal/changelog"
	"github.com/Trust914/MivaFocus-Extension/internal/clock/system"
	"github.com/Trust914/MivaFocus-Extension/internal/config"
	"github.com/Trust914/MivaFocus-Extension/internal/history"
	"github.com/Trust914/MivaFocus-Extension/internal/metrics"
	pubsubpublisher "github.com/Trust914/MivaFocus-Extension/internal/publisher/pubsub"
	"github.com/Trust914/MivaFocus-Extension/internal/storage/gcs"
	"github.com/Trust914/MivaFocus-Extension/internal/storage/local"
	"github.com/Trust914/MivaFocus-Extension/internal/updater"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Scrape, detect changes and update the changelog",
		Long: `Runs the full update cycle: scrape the catalog, compare it with
the previously persisted baseline, append a changelog entry when
changes are detected, and persist the new catalog as the baseline for
the next run. When running under GitHub Actions, the has_changes
output is written to the workflow output file.`,
		RunE: runUpdate,
	}
}

func runUpdate(cmd *cobra.Command, _ []string) error {
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

	store, err := local.New(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("init output store: %w", err)
	}
	writer := changelog.NewWriter(store.Path(cfg.Output.ChangelogFile), logger.Named("changelog"))

	opts, closers, err := buildUpdaterOptions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	u := updater.New(s, store, writer, system.New(), updater.Config{
		CatalogName: cfg.Output.CatalogFile,
		Topic:       cfg.PubSub.TopicName,
	}, logger.Named("updater"), opts...)

	res, err := u.Run(ctx)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	if err := actions.WriteHasChanges(actions.OutputPath(), res.HasChanges); err != nil {
		logger.Warn("github output write failed", zap.Error(err))
	}

	logger.Info("update finished",
		zap.Bool("has_changes", res.HasChanges),
		zap.Bool("first_run", res.FirstRun),
		zap.Int("departments", res.Catalog.DepartmentCount()),
		zap.Int("courses", res.Catalog.TotalCourses()),
	)
	return nil
}

// buildUpdaterOptions wires the optional history store, GCS mirror and
// Pub/Sub publisher when their configuration is present.
func buildUpdaterOptions(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]updater.Option, []func(), error) {
	var (
		opts    []updater.Option
		closers []func()
	)

	if cfg.DB.DSN != "" {
		store, err := history.NewPostgresStore(ctx, history.PostgresConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.HistoryTable,
			MaxConns: int32(cfg.DB.MaxConns),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init history store: %w", err)
		}
		opts = append(opts, updater.WithHistory(store))
		closers = append(closers, store.Close)
	}

	if cfg.Storage.GCSBucket != "" {
		mirror, err := gcs.New(ctx, cfg.Storage.GCSBucket)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs mirror: %w", err)
		}
		opts = append(opts, updater.WithMirrors(mirror))
		closers = append(closers, func() {
			if err := mirror.Close(); err != nil {
				logger.Warn("gcs close failed", zap.Error(err))
			}
		})
	}

	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		pub, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		opts = append(opts, updater.WithPublisher(pub))
		closers = append(closers, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("pubsub close failed", zap.Error(err))
			}
		})
	}

	return opts, closers, nil
}
