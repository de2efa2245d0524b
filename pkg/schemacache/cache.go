// Package schemacache stores fetched capability schema documents keyed by
// URL with time-based expiry. The cache is an explicit, injectable component
// so tests can substitute a fresh instance and assert fetch counts
// deterministically.
package schemacache

import (
	"context"
	"time"
)

// Entry is one cached schema document. Entries are immutable once written: a
// URL is always overwritten wholesale, never partially updated, so readers
// can never observe a torn entry.
type Entry struct {
	URL       string         `json:"url"`
	ETag      string         `json:"etag,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
	Body      map[string]any `json:"body"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is the schema store consulted before every fetch. Implementations
// must preserve last-write-wins semantics; the worst-case race under
// concurrent validation calls is a harmless duplicate fetch.
type Cache interface {
	// Get returns the entry for url, or false. Expired entries are dropped
	// lazily here; there is no background sweeper.
	Get(ctx context.Context, url string, now time.Time) (*Entry, bool)

	// Set stores the entry wholesale under entry.URL.
	Set(ctx context.Context, entry *Entry)
}
