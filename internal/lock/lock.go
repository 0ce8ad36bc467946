// Package lock serializes csync runs on one machine. Two concurrent
// runs would race on the local history files; runs from different
// machines are handled by the reconciliation protocol instead.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/csync-dev/csync/internal/domain"
)

// LockFileName is the lock file kept in the data directory
const LockFileName = "csync.lock"

// FileLock guards a csync run with an OS-level advisory lock
type FileLock struct {
	flock *flock.Flock
}

// New creates a lock under dataDir, creating the directory if needed
func New(dataDir string) (*FileLock, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileLock{
		flock: flock.New(filepath.Join(dataDir, LockFileName)),
	}, nil
}

// Acquire takes the lock, failing immediately with ErrSyncInProgress
// if another run holds it
func (l *FileLock) Acquire() error {
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s held by another process", domain.ErrSyncInProgress, l.flock.Path())
	}
	return nil
}

// Release drops the lock
func (l *FileLock) Release() error {
	return l.flock.Unlock()
}

// IsLocked reports whether this process holds the lock
func (l *FileLock) IsLocked() bool {
	return l.flock.Locked()
}

// Path returns the lock file path
func (l *FileLock) Path() string {
	return l.flock.Path()
}
