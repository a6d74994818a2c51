package shared

import (
	"fmt"

	"github.com/gofrs/flock"
)

// RunLock guards the store so that only one writer (a sync run or an operator overwrite) holds it.
type RunLock struct {
	path string
	lock *flock.Flock
}

// AcquireRunLock takes an exclusive, non-blocking lock on "<dbPath>.lock".
//
// Returns [ErrLocked] when another process already holds it.
func AcquireRunLock(dbPath string) (*RunLock, error) {
	path := dbPath + ".lock"
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &RunLock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (r *RunLock) Path() string { return r.path }

// Release unlocks the lock file. Safe to call on a nil lock.
func (r *RunLock) Release() error {
	if r == nil || r.lock == nil {
		return nil
	}
	return r.lock.Unlock()
}
