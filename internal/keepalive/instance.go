package keepalive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Acquire when another caffeine daemon holds
// the instance lock.
var ErrAlreadyRunning = errors.New("caffeine is already running")

// Instance is the per-session lock held by the running daemon.
type Instance struct {
	lock *flock.Flock
}

// DefaultLockPath returns $XDG_RUNTIME_DIR/caffeine.lock.
func DefaultLockPath() string {
	return filepath.Join(xdg.RuntimeDir, "caffeine.lock")
}

// Acquire takes the lock at path without blocking.
func Acquire(path string) (*Instance, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return &Instance{lock: lock}, nil
}

// Release drops the lock. The lock file is left in place.
func (i *Instance) Release() error {
	return i.lock.Unlock()
}
