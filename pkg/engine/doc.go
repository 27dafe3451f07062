// Package engine implements the checkpointed paginated fetch-and-persist
// loop shared by every scrape in this repository.
//
// The loop advances through an ordered iteration domain of scopes (year
// windows or a flat identifier list). Within a scope it fetches pages,
// normalizes them, advances a durable cursor after each successful batch,
// and buffers records for periodic flushes to timestamped snapshots; the
// remainder lands at the final dataset path when every scope is done.
//
// Failure semantics: an empty page or a page shorter than the requested
// size ends the scope; a fetch that fails after exhausting its retries
// aborts the entire run; a malformed cursor in the last record of a page
// ends the scope rather than looping forever on bad data.
//
// Two runs against the same checkpoint or output path are unsafe; callers
// hold a run lock (internal/runlock) for the dataset directory.
package engine
