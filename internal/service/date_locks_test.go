package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameDate(t *testing.T) {
	locks := NewDateLocks()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("2026-09-01")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestLockAllDedupesDates(t *testing.T) {
	locks := NewDateLocks()

	// A duplicate date must not self-deadlock.
	unlock := locks.LockAll("2026-09-01", "2026-09-01")
	unlock()

	unlock = locks.Lock("2026-09-01")
	unlock()
}

func TestLockAllCrossDateOrdering(t *testing.T) {
	locks := NewDateLocks()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		a, b := "2026-09-01", "2026-09-02"
		if i%2 == 1 {
			a, b = b, a
		}
		wg.Add(1)
		go func(first, second string) {
			defer wg.Done()
			unlock := locks.LockAll(first, second)
			unlock()
		}(a, b)
	}
	wg.Wait()
}

func TestDifferentDatesDoNotBlock(t *testing.T) {
	locks := NewDateLocks()

	unlockA := locks.Lock("2026-09-01")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("2026-09-02")
		unlockB()
		close(done)
	}()
	<-done
}
