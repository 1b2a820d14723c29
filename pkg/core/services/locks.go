package services

import (
	"sync"

	"github.com/google/uuid"
)

// timelineLocks serializes writers per timeline within one process.
// Idle locks are dropped once nobody holds or waits on them.
type timelineLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newTimelineLocks() *timelineLocks {
	return &timelineLocks{locks: map[uuid.UUID]*refLock{}}
}

// lock blocks until the caller owns id, and returns the release func
func (l *timelineLocks) lock(id uuid.UUID) func() {
	if l == nil {
		return func() {}
	}

	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &refLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()
	return func() {
		rl.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *timelineLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
