// Package runlock serializes refresh runs. Two runs writing the same
// (course, date, source) unit at once would interleave their delete and
// insert, so only one run may hold the lock at a time.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultKey is the lock every refresh run takes.
const DefaultKey = "teetimes:refresh"

var (
	ErrLocked = errors.New("another run holds the lock")
	// ErrLockLost means the lock expired or was taken over while a run held it.
	ErrLockLost = errors.New("run lock was lost")
)

// Lease is a held lock.
type Lease struct {
	// Lost is closed when the lock is lost before Release. It is nil for
	// locks that cannot be lost.
	Lost <-chan struct{}
	// Release gives the lock back. It is safe to call more than once.
	Release func(ctx context.Context) error
}

// Lock is a non-blocking mutual exclusion primitive, TryLock fails with
// ErrLocked instead of waiting.
type Lock interface {
	TryLock(ctx context.Context) (Lease, error)
}

// Do runs fn while holding l. The context given to fn is cancelled when the
// lock is lost, and Do then fails with ErrLockLost.
func Do(ctx context.Context, l Lock, fn func(ctx context.Context) error) error {
	lease, err := l.TryLock(ctx)
	if err != nil {
		return err
	}
	defer lease.Release(context.WithoutCancel(ctx))

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-lease.Lost:
			cancel(ErrLockLost)
		case <-runCtx.Done():
		}
	}()

	err = fn(runCtx)
	if errors.Is(context.Cause(runCtx), ErrLockLost) {
		if err == nil {
			return ErrLockLost
		}
		return fmt.Errorf("%w: %w", ErrLockLost, err)
	}
	return err
}

// Local only excludes runs inside the current process, it is used when no
// redis is configured.
type Local struct {
	mutex sync.Mutex
}

func (l *Local) TryLock(ctx context.Context) (Lease, error) {
	if !l.mutex.TryLock() {
		return Lease{}, ErrLocked
	}
	var once sync.Once
	return Lease{
		Release: func(context.Context) error {
			once.Do(l.mutex.Unlock)
			return nil
		},
	}, nil
}
