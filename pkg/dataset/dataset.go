package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/logger"
	"github.com/emanongen/wiki-project/pkg/wikidata"
)

// Table is an in-memory CSV-shaped dataset with a fixed column order
type Table struct {
	Columns []string
	Rows    []wikidata.Record
}

// Writer persists normalized records as CSV files
type Writer struct {
	logger logger.Logger
}

// NewWriter creates a new dataset writer
func NewWriter(log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{logger: log}
}

// SnapshotPath builds the intermediate snapshot filename for a flush,
// <prefix>_<YYYYMMDD_HHMMSS>.csv, so snapshots sort chronologically
func SnapshotPath(dir, prefix string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102_150405")))
}

// Write overwrites path with the records, header first. The write goes
// through a temp file and rename so interrupted runs never leave a
// truncated dataset behind.
func (w *Writer) Write(path string, columns []string, records []wikidata.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to create output directory", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to create temporary output file", err)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write(columns); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to write header", err)
	}
	for _, rec := range records {
		if err := cw.Write(rowFor(columns, rec)); err != nil {
			file.Close()
			os.Remove(tempPath)
			return errs.Wrap(errs.ErrorTypePersistence, "failed to write record", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to flush records", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to close output file", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to replace output file", err)
	}

	w.logger.InfoWithFields("dataset written", map[string]interface{}{
		"path": path,
		"rows": len(records),
	})

	return nil
}

// Append adds records to path, creating it with a header when absent.
// The column order must match the existing file's header.
func (w *Writer) Append(path string, columns []string, records []wikidata.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to create output directory", err)
	}

	_, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to open output file", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if needHeader {
		if err := cw.Write(columns); err != nil {
			return errs.Wrap(errs.ErrorTypePersistence, "failed to write header", err)
		}
	}
	for _, rec := range records {
		if err := cw.Write(rowFor(columns, rec)); err != nil {
			return errs.Wrap(errs.ErrorTypePersistence, "failed to append record", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to flush appended records", err)
	}

	w.logger.DebugWithFields("records appended", map[string]interface{}{
		"path": path,
		"rows": len(records),
	})

	return nil
}

// Read loads a CSV file into a Table. The first line is the header.
func Read(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	cr.FieldsPerRecord = -1

	all, err := cr.ReadAll()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse %s", path), err)
	}
	if len(all) == 0 {
		return &Table{}, nil
	}

	columns := all[0]
	rows := make([]wikidata.Record, 0, len(all)-1)
	for _, raw := range all[1:] {
		rec := make(wikidata.Record, len(columns))
		for i, col := range columns {
			if i < len(raw) {
				rec[col] = raw[i]
			} else {
				rec[col] = wikidata.Missing
			}
		}
		rows = append(rows, rec)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// Column extracts one column's values in row order. A missing column is a
// startup schema error, not a silent empty result.
func (t *Table) Column(name string) ([]string, error) {
	found := false
	for _, col := range t.Columns {
		if col == name {
			found = true
			break
		}
	}
	if !found {
		return nil, errs.Newf(errs.ErrorTypeSchema, "required column %q is missing", name)
	}

	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[name])
	}
	return values, nil
}

// IDColumn extracts one column's values reduced to their trailing URI path
// segment, dropping blanks and duplicates while preserving first-seen order
func (t *Table) IDColumn(name string) ([]string, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(values))
	ids := make([]string, 0, len(values))
	for _, v := range values {
		id := wikidata.EntityIDFromURI(v)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// ProcessedKeys returns the set of values already present in a column of an
// existing output file; an absent file yields an empty set so fresh runs and
// resumed runs share one code path
func ProcessedKeys(path, column string) (map[string]bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]bool{}, nil
	}

	table, err := Read(path)
	if err != nil {
		return nil, err
	}

	values, err := table.Column(column)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(values))
	for _, v := range values {
		keys[v] = true
	}
	return keys, nil
}

// Merge left-joins addition columns onto the base table. The join key on the
// base side is derived from deriveColumn by taking the trailing URI path
// segment; the addition side joins on joinKey directly. Base rows with no
// match keep the missing marker for every joined column.
func (w *Writer) Merge(basePath, additionPath, deriveColumn, joinKey, outPath string) error {
	base, err := Read(basePath)
	if err != nil {
		return err
	}
	addition, err := Read(additionPath)
	if err != nil {
		return err
	}

	// Index addition rows by join key; last row wins, matching resume-time
	// re-appends where the newest value supersedes earlier ones
	index := make(map[string]wikidata.Record, len(addition.Rows))
	for _, row := range addition.Rows {
		if key := row[joinKey]; key != "" {
			index[key] = row
		}
	}

	joined := make([]string, 0, len(addition.Columns))
	for _, col := range addition.Columns {
		if col != joinKey {
			joined = append(joined, col)
		}
	}

	outColumns := append(append([]string{}, base.Columns...), joinKey)
	outColumns = append(outColumns, joined...)

	outRows := make([]wikidata.Record, 0, len(base.Rows))
	for _, row := range base.Rows {
		out := make(wikidata.Record, len(outColumns))
		for _, col := range base.Columns {
			out[col] = row[col]
		}
		key := wikidata.EntityIDFromURI(row[deriveColumn])
		out[joinKey] = key
		if match, ok := index[key]; ok {
			for _, col := range joined {
				out[col] = match[col]
			}
		} else {
			for _, col := range joined {
				out[col] = wikidata.Missing
			}
		}
		outRows = append(outRows, out)
	}

	w.logger.InfoWithFields("datasets merged", map[string]interface{}{
		"base":     basePath,
		"addition": additionPath,
		"join_key": joinKey,
		"rows":     len(outRows),
	})

	return w.Write(outPath, outColumns, outRows)
}

// rowFor projects a record onto the column order
func rowFor(columns []string, rec wikidata.Record) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = rec[col]
	}
	return row
}
