package repos

import (
	"testing"
	"time"
)

func TestPathLocks_WriterExcludesReader(t *testing.T) {
	t.Parallel()
	locks := newPathLocks()

	unlock := locks.lock("/repo/a")
	acquired := make(chan struct{})
	go func() {
		u := locks.rlock("/repo/a")
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("read lock acquired while the write lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("read lock never acquired after unlock")
	}
}

func TestPathLocks_IndependentPaths(t *testing.T) {
	t.Parallel()
	locks := newPathLocks()

	unlock := locks.lock("/repo/a")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := locks.lock("/repo/b")
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an unrelated path blocked")
	}
}

func TestPathLocks_ConcurrentReaders(t *testing.T) {
	t.Parallel()
	locks := newPathLocks()

	u1 := locks.rlock("/repo/a")
	defer u1()

	done := make(chan struct{})
	go func() {
		u2 := locks.rlock("/repo/a")
		u2()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second read lock blocked by the first")
	}
}
