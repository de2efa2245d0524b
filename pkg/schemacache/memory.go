package schemacache

import (
	"context"
	"sync"
	"time"
)

// Memory is the default process-wide cache. Entries live in a sync.Map so
// concurrent validation calls share it without coordination; stores are
// whole-entry, so last write wins with no partial visibility.
type Memory struct {
	entries sync.Map // url -> *Entry
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{}
}

// Get implements Cache. An expired entry is dropped on the spot and reported
// as a miss so the caller refetches.
func (m *Memory) Get(_ context.Context, url string, now time.Time) (*Entry, bool) {
	v, ok := m.entries.Load(url)
	if !ok {
		return nil, false
	}
	entry := v.(*Entry)
	if entry.Expired(now) {
		m.entries.Delete(url)
		return nil, false
	}
	return entry, true
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, entry *Entry) {
	m.entries.Store(entry.URL, entry)
}

// Len returns the current number of live and expired-but-unswept entries.
func (m *Memory) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
