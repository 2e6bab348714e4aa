package cmd

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/clock/system"
	"github.com/Trust914/MivaFocus-Extension/internal/config"
	"github.com/Trust914/MivaFocus-Extension/internal/extract"
	"github.com/Trust914/MivaFocus-Extension/internal/fetch"
	collyfetch "github.com/Trust914/MivaFocus-Extension/internal/fetch/colly"
	"github.com/Trust914/MivaFocus-Extension/internal/fetch/headless"
	"github.com/Trust914/MivaFocus-Extension/internal/id/uuid"
	"github.com/Trust914/MivaFocus-Extension/internal/metrics"
	"github.com/Trust914/MivaFocus-Extension/internal/scraper"
)

// buildScraper assembles the crawl pipeline from configuration. The
// returned cleanup function releases the headless allocator when one
// was started.
func buildScraper(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*scraper.Scraper, func(), error) {
	probe := collyfetch.New(collyfetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
	})
	fetcher := fetch.NewRetrying(probe, fetch.RetryConfig{
		MaxAttempts: cfg.HTTP.MaxRetries,
		Delay:       cfg.RetryDelay(),
	}, logger.Named("fetch"), m)

	cleanup := func() {}
	var (
		rendered fetch.Fetcher
		detector *scraper.Detector
	)
	if cfg.Headless.Enabled {
		hf, err := headless.New(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.HTTP.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		rendered = hf
		cleanup = hf.Close
		detector = scraper.NewDetector(cfg.Headless.MinHTMLBytes, nil)
	}

	extractor := extract.New(extract.Config{
		FacultyToken:    cfg.Site.FacultyToken,
		DepartmentCodes: cfg.DepartmentCodes,
	}, logger.Named("extract"))

	s := scraper.New(
		fetcher,
		rendered,
		detector,
		extractor,
		scraper.Config{
			BaseURL:      cfg.Site.BaseURL,
			FacultiesURL: cfg.Site.FacultiesURL,
			Workers:      cfg.Scraper.Workers,
			RequestDelay: cfg.RequestDelay(),
			Version:      cfg.Metadata.Version,
			AcademicYear: cfg.Metadata.AcademicYear,
			ScraperName:  cfg.Metadata.ScraperName,
		},
		system.New(),
		uuid.New(),
		logger.Named("scraper"),
		m,
	)
	return s, cleanup, nil
}
