package pricing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "bridge:price:current"

// RedisStore keeps the price record under a single key, SET/GET whole-record.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	if rec.PricePerMessage <= 0 {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, b, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context) (Record, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, nil
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
