package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/internal/runlock"
	"github.com/emanongen/wiki-project/pkg/config"
	"github.com/emanongen/wiki-project/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	outputDir     string
	batchSize     int
	maxRetries    int
	backoffPolicy string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wikiscrape",
	Short: "Checkpointed Wikidata and Wikipedia dataset builder",
	Long: `wikiscrape builds CSV datasets of German notables from Wikidata and
Wikipedia, page by page, with a persisted pointer so an interrupted run
resumes exactly where it stopped.

Commands:
  scrape     walk 20-year birth windows and collect person records
  missing    re-fetch geodata for specific Wikidata IDs from a CSV column
  labels     resolve entity labels in batches and merge them back
  enrich     add occupations, death dates, pageviews, and summaries
  translate  translate an occupation column to English
  merge      left-join an addition file into a base dataset`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.wikiscrape.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for datasets (default: ./data)")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "page size for SPARQL queries")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", 0, "maximum number of retry attempts")
	rootCmd.PersistentFlags().StringVar(&backoffPolicy, "backoff", "", "retry backoff policy (linear, exponential)")

	rootCmd.SetVersionTemplate(`wikiscrape {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from all sources
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if batchSize > 0 {
		flags["batch-size"] = batchSize
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if backoffPolicy != "" {
		flags["backoff"] = backoffPolicy
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	return config.Load(configFile, flags)
}

// setup loads configuration, initializes logging, and takes the run lock on
// the output directory. Every data-touching command goes through here.
func setup() (*config.Config, logger.Logger, *runlock.Lock, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	lock, err := runlock.Acquire(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, nil, nil, err
	}

	log.WithField("version", version).Info("wikiscrape starting")
	return cfg, log, lock, nil
}
