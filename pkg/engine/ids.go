package engine

import (
	"context"
	"fmt"

	"github.com/emanongen/wiki-project/pkg/checkpoint"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

// IDQueryBuilder builds a single-identifier query
type IDQueryBuilder func(id string) string

// RunIDs applies the batch loop to a flat identifier list: the scope
// degenerates to a single pass over the list and the cursor to the last
// processed identifier, located by linear search on resume. A stored cursor
// no longer present in the list falls back to processing the full list.
func (e *Engine) RunIDs(ctx context.Context, ids []string, buildQuery IDQueryBuilder) error {
	remaining := ids

	if cur, ok := e.store.Load(); ok {
		last := cur[0]
		idx := -1
		for i, id := range ids {
			if id == last {
				idx = i
				break
			}
		}
		if idx >= 0 {
			remaining = ids[idx+1:]
			e.logger.InfoWithFields("resuming after identifier", map[string]interface{}{
				"pointer":   last,
				"remaining": len(remaining),
			})
		} else {
			e.logger.WarnWithFields("pointer not found in identifier list, starting from the beginning", map[string]interface{}{
				"pointer": last,
			})
		}
	}

	for _, id := range remaining {
		e.logger.InfoWithFields("fetching identifier", map[string]interface{}{
			"id": id,
		})

		bindings, err := e.fetcher.FetchPage(ctx, buildQuery(id))
		if err != nil {
			e.logger.ErrorWithFields("fetch failed, aborting run", map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			})
			return fmt.Errorf("identifier %s: %w", id, err)
		}

		if len(bindings) == 0 {
			// No data for this identifier; the cursor stays put
			e.logger.InfoWithFields("no results for identifier", map[string]interface{}{
				"id": id,
			})
			continue
		}

		records := wikidata.Normalize(bindings, e.opts.Columns)
		if err := e.accumulate(records); err != nil {
			return err
		}

		if err := e.store.Save(checkpoint.Cursor{id}); err != nil {
			e.logger.ErrorWithFields("failed to persist pointer", map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			})
		}
	}

	return e.finish()
}
