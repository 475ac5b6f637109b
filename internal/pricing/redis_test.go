package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "")
}

func TestRedisStoreRoundtrip(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	rec := Record{PricePerMessage: 0.045, Currency: "USD", UpdatedAt: time.Date(2025, 11, 16, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestRedisStoreIgnoresNonPositivePrice(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Record{PricePerMessage: 0.045, Currency: "USD"}))
	require.NoError(t, s.Put(ctx, Record{PricePerMessage: 0}))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.045, got.PricePerMessage)
}

func TestRedisStoreMissingKeyIsZeroRecord(t *testing.T) {
	s := newRedisStore(t)

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got)
}
