package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduplicator(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	d := NewMemoryDeduplicator(10*time.Minute, clock)

	seen, err := d.Seen(ctx, "a")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, _ = d.Seen(ctx, "a")
	assert.True(t, seen)

	require.NoError(t, d.Forget(ctx, "a"))
	seen, _ = d.Seen(ctx, "a")
	assert.False(t, seen)

	clock.Advance(11 * time.Minute)
	seen, _ = d.Seen(ctx, "a")
	assert.False(t, seen, "entry should expire after the TTL")

	_, _ = d.Seen(ctx, "b")
	clock.Advance(11 * time.Minute)
	_, _ = d.Seen(ctx, "c")
	assert.Equal(t, 1, d.Len(), "expired entries are swept")
}

func TestRedisDeduplicator(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	d := NewRedisDeduplicator(rdb, 10*time.Minute, "eventsub:")

	seen, err := d.Seen(ctx, "a")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.True(t, mr.Exists("eventsub:msg:a"))
	assert.Equal(t, 10*time.Minute, mr.TTL("eventsub:msg:a"))

	seen, err = d.Seen(ctx, "a")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, d.Forget(ctx, "a"))
	seen, err = d.Seen(ctx, "a")
	require.NoError(t, err)
	assert.False(t, seen)

	mr.FastForward(11 * time.Minute)
	seen, err = d.Seen(ctx, "a")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisDeduplicatorUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	_, err := NewRedisDeduplicator(rdb, time.Minute, "").Seen(context.Background(), "a")
	assert.Error(t, err)
}
