package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/pkg/checkpoint"
	"github.com/emanongen/wiki-project/pkg/dataset"
	"github.com/emanongen/wiki-project/pkg/engine"
	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

var (
	scrapeProfile   string
	scrapeFirstYear int
	scrapeLastYear  int
	scrapeWindow    int
	scrapeOut       string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect German notables from Wikidata across birth-year windows",
	Long: `Walk the birth-year range in fixed windows and page through each window
with keyset pagination on (birthdate, person). The last processed position
is persisted after every page, so a rerun resumes mid-window.

Two query profiles are available:
  notables  label, gender, birth year, German/English Wikipedia page URLs
  geo       birthplace, place of death, birthplace coordinates`,
	Example: `  # Full notables run with defaults
  wikiscrape scrape

  # Geodata profile over a narrower range
  wikiscrape scrape --profile geo --first-year 1800 --last-year 1900`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeProfile, "profile", "notables", "query profile (notables, geo)")
	scrapeCmd.Flags().IntVar(&scrapeFirstYear, "first-year", 1525, "first birth year of the range")
	scrapeCmd.Flags().IntVar(&scrapeLastYear, "last-year", 2025, "last birth year of the range")
	scrapeCmd.Flags().IntVar(&scrapeWindow, "window", 20, "width of each birth-year window")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "final output CSV (default: <profile>.csv in the output directory)")
}

func runScrape(ctx context.Context) error {
	cfg, log, lock, err := setup()
	if err != nil {
		return err
	}
	defer lock.Release()

	var (
		columns    []string
		buildQuery engine.QueryBuilder
	)
	switch scrapeProfile {
	case "notables":
		columns = wikidata.NotablesColumns
		buildQuery = func(scope engine.Scope, cur checkpoint.Cursor, pageSize int) string {
			lastBirthdate, lastPerson := cursorFields(cur)
			return wikidata.NotablesQuery(scope.StartYear, scope.EndYear, lastBirthdate, lastPerson, pageSize)
		}
	case "geo":
		columns = wikidata.GeoColumns
		buildQuery = func(scope engine.Scope, cur checkpoint.Cursor, pageSize int) string {
			lastBirthdate, lastPerson := cursorFields(cur)
			return wikidata.GeoQuery(scope.StartYear, scope.EndYear, lastBirthdate, lastPerson, pageSize)
		}
	default:
		return fmt.Errorf("unknown profile: %s", scrapeProfile)
	}

	finalPath := scrapeOut
	if finalPath == "" {
		finalPath = filepath.Join(cfg.Output.BaseDirectory, scrapeProfile+".csv")
	}

	store, err := checkpoint.NewFileStore(cfg.Output.BaseDirectory, scrapeProfile)
	if err != nil {
		return err
	}

	client := wikidata.NewClient(cfg, log)
	eng := engine.New(
		engine.FetchFunc(client.QuerySPARQL),
		store,
		dataset.NewWriter(log),
		buildQuery,
		birthdateCursor,
		engine.Options{
			PageSize:          cfg.Fetch.BatchSize,
			FlushEveryBatches: cfg.Fetch.FlushEveryBatches,
			Columns:           columns,
			SnapshotDir:       cfg.Output.BaseDirectory,
			SnapshotPrefix:    cfg.Output.SnapshotPrefix,
			FinalPath:         finalPath,
		},
		log,
	)

	scopes := engine.YearScopes(scrapeFirstYear, scrapeLastYear, scrapeWindow)
	if err := eng.Run(ctx, scopes); err != nil {
		log.WithError(err).Error("scrape run failed")
		return err
	}

	log.WithField("output", finalPath).Info("scrape completed")
	return nil
}

// cursorFields splits a (birthdate, person) cursor into its query inputs;
// an absent cursor yields empty fields and an unfiltered first page
func cursorFields(cur checkpoint.Cursor) (string, string) {
	if len(cur) < 2 {
		return "", ""
	}
	return cur[0], cur[1]
}

// birthdateCursor extracts the keyset cursor from the last record of a batch
func birthdateCursor(rec wikidata.Record) (checkpoint.Cursor, error) {
	birthdate := rec.Get("birthdate")
	person := rec.Get("person")
	if birthdate == wikidata.Missing || person == wikidata.Missing {
		return nil, errs.New(errs.ErrorTypeMalformedCursor, "record is missing birthdate or person")
	}
	return checkpoint.Cursor{birthdate, person}, nil
}
