package service

import (
	"fmt"
	"sync"
	"time"
)

// KeyLock serializes operations per (resourceID, date) key. Operations
// on different keys proceed fully in parallel; within one key effects
// apply in acquisition order. Entries are reference counted and removed
// once the last holder releases, so the map stays bounded by the number
// of keys under contention.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{entries: make(map[string]*lockEntry)}
}

// Lock acquires the lock for a key, blocking until it is free.
func (l *KeyLock) Lock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for a key.
func (l *KeyLock) Unlock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		l.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}

// slotKey is the serialization key for a resource and calendar date.
func slotKey(resourceID string, date time.Time) string {
	return fmt.Sprintf("%s|%s", resourceID, date.Format("2006-01-02"))
}
