package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/emanongen/wiki-project/pkg/errors"
	"github.com/emanongen/wiki-project/pkg/logger"
)

// Delimiter separates cursor fields in the pointer file. Field values
// containing the delimiter are rejected at save time; escaping would change
// the one-line on-disk format that resumed runs parse back.
const Delimiter = "|"

// Cursor is an ordered tuple of fields marking the last processed item,
// e.g. (birthdate, entity URI) or a single identifier. It serializes to a
// single delimited line and reconstructs exactly.
type Cursor []string

// String returns the single-line serialized form
func (c Cursor) String() string {
	return strings.Join(c, Delimiter)
}

// IsZero reports whether the cursor is absent
func (c Cursor) IsZero() bool {
	return len(c) == 0
}

// Parse reconstructs a cursor from its serialized form
func Parse(line string) Cursor {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return Cursor(strings.Split(line, Delimiter))
}

// Store persists and retrieves a resumption cursor for one dataset
type Store interface {
	// Save overwrites the stored cursor; the store holds exactly one live cursor
	Save(cur Cursor) error
	// Load returns the stored cursor, or ok=false when none exists.
	// A missing or unreadable backing file is absence, never an error.
	Load() (cur Cursor, ok bool)
	// Clear removes the stored cursor
	Clear() error
}

// FileStore keeps the cursor in a single-line text file, one file per
// (scope-set, dataset) pair
type FileStore struct {
	path   string
	logger logger.Logger
}

// NewFileStore creates a cursor store for the named dataset under dir
func NewFileStore(dir, dataset string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, "failed to create checkpoint directory", err)
	}

	return &FileStore{
		path:   filepath.Join(dir, fmt.Sprintf("%s.pointer.txt", dataset)),
		logger: logger.GetLogger(),
	}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Save atomically overwrites the pointer file with the cursor's one-line form
func (s *FileStore) Save(cur Cursor) error {
	if cur.IsZero() {
		return errs.New(errs.ErrorTypeMalformedCursor, "refusing to save empty cursor")
	}
	for _, field := range cur {
		if strings.Contains(field, Delimiter) {
			return errs.Newf(errs.ErrorTypeMalformedCursor,
				"cursor field %q contains the delimiter %q", field, Delimiter)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to create temporary pointer file", err)
	}

	if _, err := file.WriteString(cur.String() + "\n"); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to write pointer", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to sync pointer file", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to close pointer file", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypePersistence, "failed to replace pointer file", err)
	}

	s.logger.DebugWithFields("pointer saved", map[string]interface{}{
		"path":    s.path,
		"pointer": cur.String(),
	})

	return nil
}

// Load reads the stored cursor. Absence is not an error: callers interpret
// it as "start from the beginning of scope".
func (s *FileStore) Load() (Cursor, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WarnWithFields("pointer file unreadable, starting from scratch", map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	cur := Parse(string(data))
	if cur.IsZero() {
		return nil, false
	}

	s.logger.InfoWithFields("resuming from pointer", map[string]interface{}{
		"path":    s.path,
		"pointer": cur.String(),
	})

	return cur, true
}

// Clear removes the pointer file
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrorTypePersistence, "failed to delete pointer file", err)
	}
	return nil
}

// Exists checks if a pointer file exists
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
