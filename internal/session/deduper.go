package session

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupSize is the number of message ids a Deduper remembers when
// no size is given.
const DefaultDedupSize = 4096

// Deduper drops deliveries whose message id was already seen. The server
// may redeliver across a reconnect, and the session makes no promise about
// it, so consumers that need idempotency filter through one of these.
// It is safe for concurrent use.
type Deduper struct {
	seen *lru.Cache[string, struct{}]
}

// NewDeduper returns a Deduper remembering the size most recent ids.
func NewDeduper(size int) *Deduper {
	if size <= 0 {
		size = DefaultDedupSize
	}
	cache, _ := lru.New[string, struct{}](size)
	return &Deduper{seen: cache}
}

// Seen records id and reports whether it was already recorded. Empty ids
// are never considered duplicates.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	dup, _ := d.seen.ContainsOrAdd(id, struct{}{})
	return dup
}

// Len returns the number of remembered ids.
func (d *Deduper) Len() int {
	return d.seen.Len()
}
