package service

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedLocksMutualExclusionPerKey(t *testing.T) {
	locks := NewKeyedLocks()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("myshop")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Errorf("max concurrent holders for one key = %d, want 1", maxInCritical)
	}
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	locks := NewKeyedLocks()

	unlockA := locks.Lock("shop-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("shop-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key must not block")
	}
}

func TestKeyedLocksReleaseIdleEntries(t *testing.T) {
	locks := NewKeyedLocks()

	unlock := locks.Lock("myshop")
	unlock()

	locks.mu.Lock()
	n := len(locks.entries)
	locks.mu.Unlock()

	if n != 0 {
		t.Errorf("idle entries = %d, want 0", n)
	}
}
