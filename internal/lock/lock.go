// Package lock serializes work on individual entities. Borrow and return
// take the movie lock and then the user lock; registration takes a single
// global key. Callers must always acquire in that order.
package lock

import (
	"context"
	"slices"
	"sync"
)

// MovieKey names the lock guarding a movie's copy counts.
func MovieKey(id string) string { return "movie:" + id }

// UserKey names the lock guarding a user's open rentals.
func UserKey(id string) string { return "user:" + id }

// BootstrapKey guards the first-registrant check.
const BootstrapKey = "identities:bootstrap"

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker grants exclusive access per key until the returned Unlock is called
// or, for lease-based implementations, the lease expires.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Local is an in-process keyed mutex. Entries are reference counted and
// dropped when no goroutine holds or waits on them.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *Local) release(key string, s *slot) {
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// size reports the number of live entries.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// LockAll acquires the distinct keys in sorted order, releasing everything
// already held if a later acquisition fails. The returned Unlock releases in
// reverse. MovieKey sorts before UserKey, matching the package ordering.
func LockAll(ctx context.Context, l Locker, keys ...string) (Unlock, error) {
	keys = slices.Compact(slices.Sorted(slices.Values(keys)))
	held := make([]Unlock, 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, k := range keys {
		u, err := l.Lock(ctx, k)
		if err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, u)
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
