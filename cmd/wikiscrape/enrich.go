package main

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/pkg/checkpoint"
	"github.com/emanongen/wiki-project/pkg/dataset"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/ratelimit"
	"github.com/emanongen/wiki-project/pkg/wikidata"
	"github.com/emanongen/wiki-project/pkg/wikipedia"
)

var (
	enrichInput string
	enrichOut   string
	enrichDelay time.Duration
)

// enrichedColumns are appended to the input columns in the output
var enrichedColumns = []string{
	"occupation", "dateOfDeath",
	"germanViews", "germanDescription",
	"englishViews", "englishDescription",
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add occupations, death dates, pageviews, and summaries per person",
	Long: `Walk an existing person CSV row by row. For each row, fetch the person's
occupations and date of death from Wikidata, and pageview totals plus a
summary description for the German and English Wikipedia pages.

The number of completed rows is persisted after every row, so an
interrupted run resumes at the first unprocessed row. Lookup failures on a
single row degrade to empty values instead of stopping the run.`,
	Example: `  wikiscrape enrich --input ./data/notables.csv
  wikiscrape enrich --input ./data/notables.csv --delay 500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVarP(&enrichInput, "input", "i", "", "input CSV with person rows (required)")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "", "output CSV (default: enriched.csv in the output directory)")
	enrichCmd.Flags().DurationVar(&enrichDelay, "delay", 300*time.Millisecond, "courtesy delay between page lookups")
	enrichCmd.MarkFlagRequired("input")
}

func runEnrich(ctx context.Context) error {
	cfg, log, lock, err := setup()
	if err != nil {
		return err
	}
	defer lock.Release()

	table, err := dataset.Read(enrichInput)
	if err != nil {
		return err
	}
	if _, err := table.Column("person"); err != nil {
		return err
	}

	outPath := enrichOut
	if outPath == "" {
		outPath = filepath.Join(cfg.Output.BaseDirectory, "enriched.csv")
	}
	outColumns := append(append([]string{}, table.Columns...), enrichedColumns...)

	store, err := checkpoint.NewFileStore(cfg.Output.BaseDirectory, "enrich")
	if err != nil {
		return err
	}

	startRow := 0
	if cur, ok := store.Load(); ok {
		if n, err := strconv.Atoi(cur[0]); err == nil && n > 0 && n <= len(table.Rows) {
			startRow = n
			log.WithField("row", startRow).Info("resuming at row")
		} else {
			log.WithField("pointer", cur.String()).Warn("unusable row pointer, starting from the beginning")
		}
	}

	wdClient := wikidata.NewClient(cfg, log)
	wpClient := wikipedia.NewClient(cfg, log)
	wpClient.SetPacer(ratelimit.NewPacer(enrichDelay))
	writer := dataset.NewWriter(log)

	for i := startRow; i < len(table.Rows); i++ {
		rec := rowRecord(table, i)

		occupation, dateOfDeath := fetchOccupation(ctx, wdClient, rec.Get("person"), log)
		rec["occupation"] = occupation
		rec["dateOfDeath"] = dateOfDeath

		deViews, deDescription := pageStats(ctx, wpClient, rec.Get("GermanWikipedia"))
		rec["germanViews"] = deViews
		rec["germanDescription"] = deDescription

		enViews, enDescription := pageStats(ctx, wpClient, rec.Get("EnglishWikipedia"))
		rec["englishViews"] = enViews
		rec["englishDescription"] = enDescription

		if err := writer.Append(outPath, outColumns, []wikidata.Record{rec}); err != nil {
			return err
		}
		if err := store.Save(checkpoint.Cursor{strconv.Itoa(i + 1)}); err != nil {
			log.WithError(err).Error("failed to persist row pointer")
		}
	}

	log.WithFields(map[string]interface{}{
		"rows":   len(table.Rows) - startRow,
		"output": outPath,
	}).Info("enrichment completed")
	return nil
}

// rowRecord converts one table row into a record keyed by column name
func rowRecord(t *dataset.Table, row int) wikidata.Record {
	rec := make(wikidata.Record, len(t.Columns))
	for _, col := range t.Columns {
		rec[col] = t.Rows[row][col]
	}
	return rec
}

// fetchOccupation resolves the occupation labels and date of death for one
// person URI. Failures degrade to empty values.
func fetchOccupation(ctx context.Context, client *wikidata.Client, personURI string,
	log logger.Logger) (string, string) {

	entityID := wikidata.EntityIDFromURI(personURI)
	if entityID == "" {
		return wikidata.Missing, wikidata.Missing
	}

	bindings, err := client.QuerySPARQL(ctx, wikidata.OccupationQuery(entityID, "de"))
	if err != nil {
		log.WithError(err).Error("occupation lookup failed")
		return wikidata.Missing, wikidata.Missing
	}

	records := wikidata.Normalize(bindings, wikidata.OccupationColumns)
	var occupations []string
	dateOfDeath := wikidata.Missing
	for _, rec := range records {
		if v := rec.Get("occupationLabel"); v != wikidata.Missing {
			occupations = append(occupations, v)
		}
		if v := rec.Get("dateOfDeath"); v != wikidata.Missing {
			dateOfDeath = v
		}
	}
	return strings.Join(occupations, ", "), dateOfDeath
}

// pageStats fetches views and description for a page URL, tolerating the
// "No" marker the notables profile uses for absent pages
func pageStats(ctx context.Context, client *wikipedia.Client, pageURL string) (string, string) {
	if pageURL == "" || pageURL == "No" {
		return "0", wikipedia.NoDescription
	}
	views, description := client.PageStats(ctx, pageURL)
	return strconv.FormatInt(views, 10), description
}
