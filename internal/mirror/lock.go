package mirror

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/driftsync/driftsync/internal/utils"
)

var ErrAlreadyLocked = errors.New("replica is being mirrored by another driftsync instance")

// RunLock is a file lock that keeps two daemons from reconciling into the
// same replica at once.
type RunLock struct {
	flock *flock.Flock
}

func NewRunLock(path string) *RunLock {
	return &RunLock{flock: flock.New(path)}
}

func (l *RunLock) Acquire() error {
	if err := utils.EnsureParent(l.flock.Path()); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return ErrAlreadyLocked
	}
	return nil
}

func (l *RunLock) Release() error {
	// don't remove a lock file this process never held
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return os.Remove(l.flock.Path())
}
