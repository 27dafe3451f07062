package main

import (
	"github.com/spf13/cobra"

	"github.com/emanongen/wiki-project/pkg/dataset"
)

var (
	mergeBase     string
	mergeAddition string
	mergeDerive   string
	mergeJoinKey  string
	mergeOut      string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Left-join an addition file into a base dataset",
	Long: `Left-join the addition CSV into the base CSV. The join key is derived
from a base column by taking the trailing path segment of its value, and
matched against a key column of the addition file. Base rows without a
match keep empty values for the added columns.`,
	Example: `  wikiscrape merge --base notables.csv --addition labels.csv \
      --derive-column person --join-key id --out notables_labeled.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge()
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeBase, "base", "", "base CSV (required)")
	mergeCmd.Flags().StringVar(&mergeAddition, "addition", "", "addition CSV (required)")
	mergeCmd.Flags().StringVar(&mergeDerive, "derive-column", "person", "base column the join key is derived from")
	mergeCmd.Flags().StringVar(&mergeJoinKey, "join-key", "id", "key column in the addition file")
	mergeCmd.Flags().StringVar(&mergeOut, "out", "", "output CSV (required)")
	mergeCmd.MarkFlagRequired("base")
	mergeCmd.MarkFlagRequired("addition")
	mergeCmd.MarkFlagRequired("out")
}

func runMerge() error {
	_, log, lock, err := setup()
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := dataset.NewWriter(log).Merge(mergeBase, mergeAddition, mergeDerive, mergeJoinKey, mergeOut); err != nil {
		log.WithError(err).Error("merge failed")
		return err
	}

	log.WithField("output", mergeOut).Info("merge completed")
	return nil
}
