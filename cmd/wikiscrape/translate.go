package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/pkg/dataset"
	"github.com/emanongen/wiki-project/pkg/translate"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

var (
	translateInput  string
	translateColumn string
	translateOut    string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate an occupation column to English",
	Long: `Read a CSV and translate the values of one column through the configured
translation provider, writing the result to a new <column>English column.

Distinct values are translated once and reused across rows. A provider
failure for a value keeps the original text in place and the run continues.
The column must exist; a missing column stops the command before any
provider call.`,
	Example: `  wikiscrape translate --input ./data/enriched.csv
  wikiscrape translate --input ./data/enriched.csv --column occupation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranslate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&translateInput, "input", "i", "", "input CSV (required)")
	translateCmd.Flags().StringVar(&translateColumn, "column", "occupation", "column to translate")
	translateCmd.Flags().StringVar(&translateOut, "out", "", "output CSV (default: <input> with _translated suffix)")
	translateCmd.MarkFlagRequired("input")
}

func runTranslate(ctx context.Context) error {
	cfg, log, lock, err := setup()
	if err != nil {
		return err
	}
	defer lock.Release()

	table, err := dataset.Read(translateInput)
	if err != nil {
		return err
	}
	values, err := table.Column(translateColumn)
	if err != nil {
		return err
	}

	translator := translate.NewDeepLClient(cfg, log)

	// Translate each distinct value once
	translated := make(map[string]string)
	for _, v := range values {
		if v == wikidata.Missing {
			continue
		}
		if _, ok := translated[v]; ok {
			continue
		}
		translated[v] = translate.TranslateOrOriginal(ctx, translator, v, log)
	}
	log.WithFields(map[string]interface{}{
		"rows":     len(values),
		"distinct": len(translated),
	}).Info("translated column values")

	outColumn := translateColumn + "English"
	outColumns := append(append([]string{}, table.Columns...), outColumn)

	records := make([]wikidata.Record, 0, len(table.Rows))
	for i := range table.Rows {
		rec := rowRecord(table, i)
		rec[outColumn] = translated[rec.Get(translateColumn)]
		records = append(records, rec)
	}

	outPath := translateOut
	if outPath == "" {
		ext := filepath.Ext(translateInput)
		outPath = translateInput[:len(translateInput)-len(ext)] + "_translated" + ext
	}
	if err := dataset.NewWriter(log).Write(outPath, outColumns, records); err != nil {
		return err
	}

	log.WithField("output", outPath).Info("translation completed")
	return nil
}
