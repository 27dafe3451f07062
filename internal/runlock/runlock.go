// Package runlock enforces a single active runner per output directory.
// Two concurrent runs sharing a pointer file would interleave cursor saves
// and corrupt resumption, so every command acquires the lock before touching
// the directory.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	errs "github.com/emanongen/wiki-project/pkg/errors"
)

// Lock is a held file lock on an output directory
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an exclusive non-blocking lock for the given output
// directory, creating the directory if needed. It fails immediately when
// another runner already holds the lock.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, "failed to create output directory", err)
	}

	fl := flock.New(filepath.Join(dir, ".wikiscrape.lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, "failed to acquire run lock", err)
	}
	if !locked {
		return nil, errs.New(errs.ErrorTypePersistence,
			fmt.Sprintf("another run is already active in %s", dir))
	}

	return &Lock{fl: fl}, nil
}

// Release drops the lock
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
