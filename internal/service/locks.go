package service

import "sync"

// KeyedLocks serializes sagas per store name, closing the race between a
// concurrent double-install or an install overlapping a delete. Locks are
// reference counted so entries for idle names are released.
type KeyedLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{entries: make(map[string]*lockEntry)}
}

// Lock acquires the exclusive lock for key and returns its release func.
func (l *KeyedLocks) Lock(key string) func() {
	l.mu.Lock()
	e, exists := l.entries[key]
	if !exists {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
