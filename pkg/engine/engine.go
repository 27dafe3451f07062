package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emanongen/wiki-project/pkg/checkpoint"
	"github.com/emanongen/wiki-project/pkg/dataset"
	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

// Fetcher issues one page fetch. A nil batch with nil error means the query
// matched nothing; an error means the fetch failed terminally (retries are
// the fetcher's concern and are already exhausted by the time it returns).
type Fetcher interface {
	FetchPage(ctx context.Context, query string) ([]wikidata.Binding, error)
}

// FetchFunc adapts a function to the Fetcher interface
type FetchFunc func(ctx context.Context, query string) ([]wikidata.Binding, error)

// FetchPage calls f
func (f FetchFunc) FetchPage(ctx context.Context, query string) ([]wikidata.Binding, error) {
	return f(ctx, query)
}

// QueryBuilder builds a page query from the scope bounds, the last processed
// cursor (exclusive lower bound, absent on a fresh scope), and the page size
type QueryBuilder func(scope Scope, cur checkpoint.Cursor, pageSize int) string

// CursorExtractor derives the resumption cursor from a batch's last record.
// Returning an error marks the cursor malformed; the loop ends the scope
// rather than risking an infinite page.
type CursorExtractor func(rec wikidata.Record) (checkpoint.Cursor, error)

// Options tunes one engine run
type Options struct {
	// PageSize is the requested batch size; a shorter batch ends the scope
	PageSize int
	// FlushEveryBatches bounds the accumulator before an intermediate flush
	FlushEveryBatches int
	// Columns fixes the normalized record shape and the CSV header order
	Columns []string
	// SnapshotDir and SnapshotPrefix name intermediate flush files
	SnapshotDir    string
	SnapshotPrefix string
	// FinalPath receives the remaining buffered records at the end of the run
	FinalPath string
}

// Engine drives the checkpointed fetch-and-persist loop across an iteration
// domain of scopes. It is strictly sequential: one fetch in flight, cursor
// persisted only after a batch fully completes normalization.
type Engine struct {
	fetcher       Fetcher
	store         checkpoint.Store
	writer        *dataset.Writer
	buildQuery    QueryBuilder
	extractCursor CursorExtractor
	opts          Options
	logger        logger.Logger

	buffer     []wikidata.Record
	batchCount int
	now        func() time.Time
}

// New creates an engine from its collaborators
func New(fetcher Fetcher, store checkpoint.Store, writer *dataset.Writer,
	buildQuery QueryBuilder, extractCursor CursorExtractor,
	opts Options, log logger.Logger) *Engine {

	if log == nil {
		log = logger.GetLogger()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 500
	}
	if opts.FlushEveryBatches <= 0 {
		opts.FlushEveryBatches = 20
	}

	return &Engine{
		fetcher:       fetcher,
		store:         store,
		writer:        writer,
		buildQuery:    buildQuery,
		extractCursor: extractCursor,
		opts:          opts,
		logger:        log,
		now:           time.Now,
	}
}

// SetClock overrides the snapshot timestamp source (used by tests)
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Run advances through all scopes in order. A terminal fetch failure aborts
// the entire run, not just the current scope; the checkpoint keeps its
// pre-attempt value so a rerun resumes where the failure happened.
func (e *Engine) Run(ctx context.Context, scopes []Scope) error {
	for _, scope := range scopes {
		if err := e.runScope(ctx, scope); err != nil {
			return err
		}
	}

	return e.finish()
}

// runScope drives one scope from SCOPE_INIT to SCOPE_DONE
func (e *Engine) runScope(ctx context.Context, scope Scope) error {
	cur, _ := e.store.Load()

	e.logger.InfoWithFields("scope started", map[string]interface{}{
		"scope":   scope.Label,
		"pointer": cur.String(),
	})

	for {
		query := e.buildQuery(scope, cur, e.opts.PageSize)

		bindings, err := e.fetcher.FetchPage(ctx, query)
		if err != nil {
			// Exhausted retries stop the whole run; skipping ahead would
			// silently drop data with no failure record
			e.logger.ErrorWithFields("fetch failed, aborting run", map[string]interface{}{
				"scope": scope.Label,
				"error": err.Error(),
			})
			return fmt.Errorf("scope %s: %w", scope.Label, err)
		}

		if len(bindings) == 0 {
			e.logger.InfoWithFields("no more results for scope", map[string]interface{}{
				"scope": scope.Label,
			})
			return nil
		}

		records := wikidata.Normalize(bindings, e.opts.Columns)

		next, curErr := e.extractCursor(records[len(records)-1])
		if curErr == nil {
			if err := e.store.Save(next); err != nil {
				// Run continues on persistence trouble; resumption may
				// restart from the stale pointer
				e.logger.ErrorWithFields("failed to persist pointer", map[string]interface{}{
					"scope": scope.Label,
					"error": err.Error(),
				})
			} else {
				e.logger.InfoWithFields("pointer updated", map[string]interface{}{
					"scope":   scope.Label,
					"pointer": next.String(),
				})
			}
			cur = next
		}

		if err := e.accumulate(records); err != nil {
			return err
		}

		if curErr != nil {
			var typed *errs.Error
			if !errors.As(curErr, &typed) || typed.Type != errs.ErrorTypeMalformedCursor {
				curErr = errs.Wrap(errs.ErrorTypeMalformedCursor, "cursor extraction failed", curErr)
			}
			e.logger.WarnWithFields("malformed cursor in last record, ending scope", map[string]interface{}{
				"scope": scope.Label,
				"error": curErr.Error(),
			})
			return nil
		}

		if len(records) < e.opts.PageSize {
			e.logger.InfoWithFields("short batch, end of scope data", map[string]interface{}{
				"scope":   scope.Label,
				"fetched": len(records),
			})
			return nil
		}
	}
}

// accumulate buffers a processed batch and flushes when the threshold hits
func (e *Engine) accumulate(records []wikidata.Record) error {
	e.buffer = append(e.buffer, records...)
	e.batchCount++

	e.logger.InfoWithFields("batch processed", map[string]interface{}{
		"records":  len(records),
		"batches":  e.batchCount,
		"buffered": len(e.buffer),
	})

	if e.batchCount%e.opts.FlushEveryBatches == 0 {
		return e.flushSnapshot()
	}
	return nil
}

// flushSnapshot writes the accumulator to a timestamped intermediate file
// and clears it
func (e *Engine) flushSnapshot() error {
	if len(e.buffer) == 0 {
		return nil
	}

	path := dataset.SnapshotPath(e.opts.SnapshotDir, e.opts.SnapshotPrefix, e.now())
	if err := e.writer.Write(path, e.opts.Columns, e.buffer); err != nil {
		e.logger.ErrorWithFields("failed to write intermediate snapshot", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return err
	}

	e.logger.InfoWithFields("intermediate results saved", map[string]interface{}{
		"path": path,
		"rows": len(e.buffer),
	})

	e.buffer = nil
	return nil
}

// finish flushes any remaining buffered records to the final dataset path
func (e *Engine) finish() error {
	if len(e.buffer) == 0 {
		e.logger.Warn("no buffered data at end of run")
		return nil
	}

	if err := e.writer.Write(e.opts.FinalPath, e.opts.Columns, e.buffer); err != nil {
		return err
	}

	e.logger.InfoWithFields("final results saved", map[string]interface{}{
		"path": e.opts.FinalPath,
		"rows": len(e.buffer),
	})

	e.buffer = nil
	return nil
}
