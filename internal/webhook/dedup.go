package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// Deduplicator remembers message ids so redeliveries are acknowledged
// without being processed twice.
type Deduplicator interface {
	// Seen records id and reports whether it was already recorded.
	Seen(ctx context.Context, id string) (bool, error)
	// Forget drops id so a later redelivery is processed again.
	Forget(ctx context.Context, id string) error
}

// MemoryDeduplicator is an in-process Deduplicator whose entries expire
// after a TTL.
type MemoryDeduplicator struct {
	mu        sync.Mutex
	ttl       time.Duration
	clock     clockwork.Clock
	seen      map[string]time.Time
	lastSweep time.Time
}

// NewMemoryDeduplicator returns a MemoryDeduplicator. A nil clock means the
// wall clock.
func NewMemoryDeduplicator(ttl time.Duration, clock clockwork.Clock) *MemoryDeduplicator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryDeduplicator{
		ttl:       ttl,
		clock:     clock,
		seen:      make(map[string]time.Time),
		lastSweep: clock.Now(),
	}
}

// Seen implements Deduplicator.
func (d *MemoryDeduplicator) Seen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if now.Sub(d.lastSweep) >= d.ttl {
		for k, exp := range d.seen {
			if !now.Before(exp) {
				delete(d.seen, k)
			}
		}
		d.lastSweep = now
	}

	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return true, nil
	}
	d.seen[id] = now.Add(d.ttl)
	return false, nil
}

// Forget implements Deduplicator.
func (d *MemoryDeduplicator) Forget(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	return nil
}

// Len returns the number of remembered ids, expired or not.
func (d *MemoryDeduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// RedisDeduplicator shares message ids across replicas through Redis.
type RedisDeduplicator struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisDeduplicator returns a RedisDeduplicator storing keys under
// prefix.
func NewRedisDeduplicator(rdb redis.UniversalClient, ttl time.Duration, prefix string) *RedisDeduplicator {
	return &RedisDeduplicator{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Seen implements Deduplicator with SET NX EX.
func (d *RedisDeduplicator) Seen(ctx context.Context, id string) (bool, error) {
	set, err := d.rdb.SetNX(ctx, d.key(id), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("recording message id: %w", err)
	}
	return !set, nil
}

// Forget implements Deduplicator.
func (d *RedisDeduplicator) Forget(ctx context.Context, id string) error {
	if err := d.rdb.Del(ctx, d.key(id)).Err(); err != nil {
		return fmt.Errorf("forgetting message id: %w", err)
	}
	return nil
}

func (d *RedisDeduplicator) key(id string) string {
	return d.prefix + "msg:" + id
}
