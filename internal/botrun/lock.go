package botrun

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another bot holds the lock. Two pollers
// on one token would steal each other's updates.
var ErrAlreadyRunning = errors.New("another hardsub bot instance is already running")

// acquireLock takes the single-instance lock at path and returns its release
// function.
func acquireLock(path string) (func() error, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, path)
	}
	return lock.Unlock, nil
}
