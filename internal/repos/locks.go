package repos

import "sync"

// pathLocks hands out one RWMutex per canonical working-copy path, created on
// first use and retained for the process lifetime. Mutating operations take
// the write lock, read-only operations the read lock, so readers against one
// repository run concurrently but never alongside a mutation.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.RWMutex)}
}

func (p *pathLocks) get(path string) *sync.RWMutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.RWMutex{}
		p.locks[path] = l
	}
	return l
}

func (p *pathLocks) lock(path string) func() {
	l := p.get(path)
	l.Lock()
	return l.Unlock
}

func (p *pathLocks) rlock(path string) func() {
	l := p.get(path)
	l.RLock()
	return l.RUnlock
}
