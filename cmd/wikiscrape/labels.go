package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/pkg/dataset"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

var (
	labelsInput  string
	labelsColumn string
	labelsLang   string
	labelsOut    string
	labelsMerged string
)

// labelColumns is the shape of the labels lookup file
var labelColumns = []string{"id", "label"}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Resolve entity labels in batches and merge them back",
	Long: `Read entity identifiers from a column of an existing CSV, resolve their
labels through the wbgetentities API in batches, and left-join the labels
back into the dataset.

Every input identifier produces exactly one row in the labels file, with an
empty label when the entity has none. Identifiers already present in the
labels file are skipped, so reruns only fetch what is still missing. A
failed batch falls back to one request per identifier.`,
	Example: `  wikiscrape labels --input ./data/notables.csv --column person
  wikiscrape labels --input ./data/places.csv --column birthplace --lang de`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLabels(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)

	labelsCmd.Flags().StringVarP(&labelsInput, "input", "i", "", "input CSV with the identifier column (required)")
	labelsCmd.Flags().StringVar(&labelsColumn, "column", "person", "column holding entity URIs or IDs")
	labelsCmd.Flags().StringVar(&labelsLang, "lang", "de", "label language")
	labelsCmd.Flags().StringVar(&labelsOut, "out", "", "labels CSV (default: labels.csv in the output directory)")
	labelsCmd.Flags().StringVar(&labelsMerged, "merged", "", "merged output CSV (default: <input> with _labeled suffix)")
	labelsCmd.MarkFlagRequired("input")
}

func runLabels(ctx context.Context) error {
	cfg, log, lock, err := setup()
	if err != nil {
		return err
	}
	defer lock.Release()

	table, err := dataset.Read(labelsInput)
	if err != nil {
		return err
	}
	ids, err := table.IDColumn(labelsColumn)
	if err != nil {
		return err
	}

	labelsPath := labelsOut
	if labelsPath == "" {
		labelsPath = filepath.Join(cfg.Output.BaseDirectory, "labels.csv")
	}

	done, err := dataset.ProcessedKeys(labelsPath, "id")
	if err != nil {
		return err
	}

	pending := ids[:0:0]
	for _, id := range ids {
		if !done[id] {
			pending = append(pending, id)
		}
	}
	log.WithFields(map[string]interface{}{
		"total":   len(ids),
		"done":    len(ids) - len(pending),
		"pending": len(pending),
	}).Info("resolving entity labels")

	client := wikidata.NewClient(cfg, log)
	writer := dataset.NewWriter(log)

	for start := 0; start < len(pending); start += cfg.Fetch.LabelBatchSize {
		end := start + cfg.Fetch.LabelBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		records := resolveLabelBatch(ctx, client, batch, log)
		if err := writer.Append(labelsPath, labelColumns, records); err != nil {
			return err
		}
	}

	mergedPath := labelsMerged
	if mergedPath == "" {
		ext := filepath.Ext(labelsInput)
		mergedPath = labelsInput[:len(labelsInput)-len(ext)] + "_labeled" + ext
	}
	if err := writer.Merge(labelsInput, labelsPath, labelsColumn, "id", mergedPath); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"labels": labelsPath,
		"merged": mergedPath,
	}).Info("label resolution completed")
	return nil
}

// resolveLabelBatch resolves one batch of identifiers, falling back to
// per-identifier requests when the batch call fails. Every identifier gets a
// row, unlabeled entities with an empty label.
func resolveLabelBatch(ctx context.Context, client *wikidata.Client,
	batch []string, log logger.Logger) []wikidata.Record {

	labels, err := client.EntityLabels(ctx, batch, labelsLang)
	if err != nil {
		log.WithError(err).WithField("size", len(batch)).Warn("batch label lookup failed, retrying one by one")
		labels = make(map[string]string, len(batch))
		for _, id := range batch {
			label, ok, err := client.EntityLabel(ctx, id, labelsLang)
			if err != nil {
				log.WithError(err).WithField("id", id).Error("label lookup failed")
				continue
			}
			if ok {
				labels[id] = label
			}
		}
	}

	records := make([]wikidata.Record, 0, len(batch))
	for _, id := range batch {
		label, ok := labels[id]
		if !ok {
			label = wikidata.Missing
		}
		records = append(records, wikidata.Record{"id": id, "label": label})
	}
	return records
}
