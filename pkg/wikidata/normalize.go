package wikidata

// Normalize flattens raw bindings into records over the given columns.
// For every column the envelope's value replaces the wrapper; a column with
// no binding or no value becomes the Missing marker, never an error.
func Normalize(bindings []Binding, columns []string) []Record {
	if len(bindings) == 0 {
		return nil
	}

	records := make([]Record, 0, len(bindings))
	for _, b := range bindings {
		rec := make(Record, len(columns))
		for _, col := range columns {
			if env, ok := b[col]; ok {
				rec[col] = env.Value
			} else {
				rec[col] = Missing
			}
		}
		records = append(records, rec)
	}
	return records
}

// NormalizeRecords is the identity on already-normalized records; running
// normalization twice yields the same sequence as running it once.
func NormalizeRecords(records []Record) []Record {
	return records
}

// Columns collects the output column set for a query's SELECT variables.
// Order is significant: it fixes the CSV header layout.
func Columns(vars ...string) []string {
	return vars
}
