// Package lock serializes roster imports.
//
// Two imports validated against the same roster snapshot can both admit the
// same student. Holding a lock for the whole import closes that window:
// [Local] covers a single process, [Redis] covers every instance sharing a
// Redis server.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the lock could not be acquired within the wait time.
var ErrBusy = errors.New("import already in progress, please try again later")

// DefaultMaxWait is how long Acquire waits when no wait time is configured.
const DefaultMaxWait = 30 * time.Second

// Local is an in-process lock built on a single-slot semaphore. Waiters give
// up with ErrBusy after maxWait.
type Local struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu      sync.RWMutex
	active  int
	waiting int
}

// NewLocal creates a process-local lock.
func NewLocal(maxWait time.Duration) *Local {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Local{
		semaphore: make(chan struct{}, 1),
		maxWait:   maxWait,
	}
}

// Acquire waits for the lock. The returned release func is idempotent.
func (l *Local) Acquire(ctx context.Context) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()
	}()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return l.releaseOnce(), nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own wait timeout.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBusy
	}
}

// TryAcquire takes the lock only if it is free.
func (l *Local) TryAcquire() (func(), bool) {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return l.releaseOnce(), true
	default:
		return nil, false
	}
}

func (l *Local) releaseOnce() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.active--
			l.mu.Unlock()
			<-l.semaphore
		})
	}
}

// Held reports whether an import currently holds the lock.
func (l *Local) Held() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active > 0
}

// WaitForDrain blocks until the lock is free or ctx is done. Used on shutdown
// so a running import can finish.
func (l *Local) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !l.Held() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status is a snapshot of the lock for health endpoints.
type Status struct {
	Held    bool `json:"held"`
	Waiting int  `json:"waiting"`
}

// Status returns the current lock state.
func (l *Local) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Status{Held: l.active > 0, Waiting: l.waiting}
}
