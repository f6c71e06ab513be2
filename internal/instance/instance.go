// Package instance keeps a host from running two bridges against the same
// backend installation.
//
// A CLI can be launched any number of times, so hosts take an advisory file
// lock before spawning the backend.
package instance

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning indicates another process holds the lock.
var ErrAlreadyRunning = stderrors.New("another brainbridge instance is running")

// DefaultLockName is the lock file name used inside the install directory.
const DefaultLockName = "brainbridge.lock"

// Lock is a held single-instance lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking. The parent directory is
// created if needed. Returns ErrAlreadyRunning when another process holds it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	l := flock.New(path)

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%w (lock: %s)", ErrAlreadyRunning, path)
	}

	return &Lock{path: path, lock: l}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}

	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}
