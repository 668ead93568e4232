package service

import (
	"sort"
	"sync"
)

// DateLocks serializes all proposal evaluation and commits for a calendar
// date. Two concurrent proposals for the same day must never both validate
// against a stale snapshot; different days proceed in parallel. Interrupt
// approval shares the same registry as ordinary block mutations.
type DateLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDateLocks creates an empty lock registry.
func NewDateLocks() *DateLocks {
	return &DateLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a date and returns its unlock function.
func (d *DateLocks) Lock(date string) func() {
	lock := d.lockFor(date)
	lock.Lock()
	return lock.Unlock
}

// LockAll acquires the mutexes for several dates in sorted order, so two
// callers crossing the same pair of dates cannot deadlock. Duplicates are
// collapsed. The returned function releases everything.
func (d *DateLocks) LockAll(dates ...string) func() {
	unique := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		unique = append(unique, date)
	}
	sort.Strings(unique)

	locked := make([]*sync.Mutex, 0, len(unique))
	for _, date := range unique {
		lock := d.lockFor(date)
		lock.Lock()
		locked = append(locked, lock)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

func (d *DateLocks) lockFor(date string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[date]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[date] = lock
	}
	return lock
}
