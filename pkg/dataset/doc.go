// Package dataset persists normalized records as CSV files: incremental
// append during a run, timestamped intermediate snapshots on periodic
// flushes, and a final left-join merge of lookup results back into the base
// dataset. Full-file writes go through a temp file and rename.
package dataset
