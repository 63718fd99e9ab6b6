package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockSerializesPerKey(t *testing.T) {
	t.Parallel()

	locks := NewKeyLock()

	const workers = 32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("k")
			defer locks.Unlock("k")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
	assert.Empty(t, locks.entries)
}

func TestKeyLockIndependentKeys(t *testing.T) {
	t.Parallel()

	locks := NewKeyLock()
	locks.Lock("a")

	done := make(chan struct{})
	go func() {
		locks.Lock("b")
		locks.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an independent key blocked")
	}
	locks.Unlock("a")
}

func TestKeyLockEntriesAreReclaimed(t *testing.T) {
	t.Parallel()

	locks := NewKeyLock()
	locks.Lock("a")
	locks.Lock("b")
	locks.Unlock("b")
	assert.Len(t, locks.entries, 1)
	locks.Unlock("a")
	assert.Empty(t, locks.entries)
}

func TestSlotKey(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "res-1|2026-03-02", slotKey("res-1", date))
}
