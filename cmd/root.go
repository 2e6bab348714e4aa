// Package cmd defines the CLI commands for the mivascraper executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/config"
	"github.com/Trust914/MivaFocus-Extension/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mivascraper",
		Short: "Scrapes the Miva university course catalog and tracks changes",
		Long: `mivascraper crawls the university site for faculties, departments
and curriculum tables, assembles a course catalog, and detects changes
against the previously persisted catalog, maintaining a Markdown
changelog of every update.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the environment, configuration and logger shared by all
// subcommands. A missing .env file is not an error.
func setup() (config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func syncLogger(logger *zap.Logger) {
	// Sync fails on some platforms when stderr is a terminal; ignore.
	_ = logger.Sync()
}
