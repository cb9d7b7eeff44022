package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	if MovieKey("m1") != "movie:m1" || UserKey("u1") != "user:u1" {
		t.Fatalf("unexpected key format")
	}
}

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "movie:1")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("critical section entered concurrently: max=%d", maxInside)
	}
	if l.size() != 0 {
		t.Fatalf("slots leaked: %d", l.size())
	}
}

func TestLocal_DistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	u1, err := l.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	defer u1()
	u2, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock b while a held: %v", err)
	}
	u2()
}

func TestLocal_ContextCancelWhileWaiting(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock() // idempotent
	if l.size() != 0 {
		t.Fatalf("slots leaked after cancel: %d", l.size())
	}

	again, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("key must be free again: %v", err)
	}
	again()
}

type failingLocker struct {
	inner   Locker
	failKey string
}

func (f failingLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	if key == f.failKey {
		return nil, errors.New("boom")
	}
	return f.inner.Lock(ctx, key)
}

func TestLockAll_RollsBackOnFailure(t *testing.T) {
	l := NewLocal()
	_, err := LockAll(context.Background(), failingLocker{inner: l, failKey: "user:1"}, "movie:1", "user:1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if l.size() != 0 {
		t.Fatalf("movie lock must be released after failure, slots=%d", l.size())
	}
}

func TestLockAll_HoldsAllUntilUnlock(t *testing.T) {
	l := NewLocal()
	unlock, err := LockAll(context.Background(), l, "movie:1", "user:1")
	if err != nil {
		t.Fatalf("LockAll: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "user:1"); err == nil {
		t.Fatalf("user key should be held")
	}
	unlock()
	unlock()
	if l.size() != 0 {
		t.Fatalf("slots leaked: %d", l.size())
	}
}

type recordingLocker struct {
	inner Locker
	mu    sync.Mutex
	order []string
}

func (r *recordingLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	r.mu.Lock()
	r.order = append(r.order, key)
	r.mu.Unlock()
	return r.inner.Lock(ctx, key)
}

func TestLockAll_SortsAndDedupesKeys(t *testing.T) {
	rec := &recordingLocker{inner: NewLocal()}
	unlock, err := LockAll(context.Background(), rec, UserKey("1"), MovieKey("9"), UserKey("1"))
	if err != nil {
		t.Fatalf("LockAll: %v", err)
	}
	defer unlock()
	want := []string{"movie:9", "user:1"}
	if len(rec.order) != len(want) || rec.order[0] != want[0] || rec.order[1] != want[1] {
		t.Fatalf("acquire order = %v; want %v", rec.order, want)
	}
}

func TestLockAll_OppositeArgumentOrderDoesNotDeadlock(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			u, err := LockAll(ctx, l, "a", "b")
			if err != nil {
				errs <- err
				return
			}
			u()
		}()
		go func() {
			defer wg.Done()
			u, err := LockAll(ctx, l, "b", "a")
			if err != nil {
				errs <- err
				return
			}
			u()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("LockAll: %v", err)
	}
	if l.size() != 0 {
		t.Fatalf("slots leaked: %d", l.size())
	}
}
