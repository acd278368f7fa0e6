package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"bellastore/internal/config"
)

// ErrRootLocked is returned when another process holds the root lock.
var ErrRootLocked = errors.New("another bellastore process is using this root")

// RootLock is a held root lock.
type RootLock struct {
	path string
	lock *flock.Flock
}

// AcquireRootLock takes the root-wide lock without blocking.
func AcquireRootLock(cfg *config.Config) (*RootLock, error) {
	path := cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrRootLocked, path)
	}
	return &RootLock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *RootLock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *RootLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
