package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("data directory is in use by another engine")

// LockDataDir takes an exclusive lock on dir/engine.lock so two engines
// never share one snapshot database. Unlock the returned lock on exit.
func LockDataDir(dir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dir, "engine.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl, nil
}
