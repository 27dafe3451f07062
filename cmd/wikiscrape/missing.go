package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/pkg/checkpoint"
	"github.com/emanongen/wiki-project/pkg/dataset"
	"github.com/emanongen/wiki-project/pkg/engine"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

var (
	missingInput  string
	missingColumn string
	missingOut    string
)

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "Re-fetch geodata for Wikidata IDs listed in a CSV column",
	Long: `Read Wikidata identifiers from a column of an existing CSV and fetch
geodata for each one individually. The last processed identifier is
persisted, so an interrupted run picks up after it. Identifiers without
results are skipped without advancing the pointer.`,
	Example: `  wikiscrape missing --input ./data/notables.csv
  wikiscrape missing --input ./data/notables.csv --column wikidata_id`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMissing(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(missingCmd)

	missingCmd.Flags().StringVarP(&missingInput, "input", "i", "", "input CSV with the identifier column (required)")
	missingCmd.Flags().StringVar(&missingColumn, "column", "wikidata_id", "column holding the Wikidata IDs")
	missingCmd.Flags().StringVar(&missingOut, "out", "", "final output CSV (default: missing_geodata.csv in the output directory)")
	missingCmd.MarkFlagRequired("input")
}

func runMissing(ctx context.Context) error {
	cfg, log, lock, err := setup()
	if err != nil {
		return err
	}
	defer lock.Release()

	table, err := dataset.Read(missingInput)
	if err != nil {
		return err
	}
	ids, err := table.IDColumn(missingColumn)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"input": missingInput,
		"ids":   len(ids),
	}).Info("loaded identifier list")

	finalPath := missingOut
	if finalPath == "" {
		finalPath = filepath.Join(cfg.Output.BaseDirectory, "missing_geodata.csv")
	}

	store, err := checkpoint.NewFileStore(cfg.Output.BaseDirectory, "missing")
	if err != nil {
		return err
	}

	client := wikidata.NewClient(cfg, log)
	eng := engine.New(
		engine.FetchFunc(client.QuerySPARQL),
		store,
		dataset.NewWriter(log),
		nil,
		nil,
		engine.Options{
			PageSize:          cfg.Fetch.BatchSize,
			FlushEveryBatches: cfg.Fetch.FlushEveryBatches,
			Columns:           wikidata.GeoColumns,
			SnapshotDir:       cfg.Output.BaseDirectory,
			SnapshotPrefix:    cfg.Output.SnapshotPrefix,
			FinalPath:         finalPath,
		},
		log,
	)

	if err := eng.RunIDs(ctx, ids, wikidata.PersonGeoQuery); err != nil {
		log.WithError(err).Error("missing-geodata run failed")
		return err
	}

	log.WithField("output", finalPath).Info("missing-geodata run completed")
	return nil
}
