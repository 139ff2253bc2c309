package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Iris/pkg/contracts"
)

const redisKeyPrefix = "iris:kv:"

// RedisStore keeps values as plain Redis strings without expiry.
// Cache TTL is enforced by the response cache, not by Redis.
type RedisStore struct {
	client *redis.Client
}

var _ contracts.KVStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis connects and pings before returning
func DialRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}

// buildKey namespaces a store key
// Format: iris:kv:{key}
func (s *RedisStore) buildKey(key string) string {
	return redisKeyPrefix + key
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.buildKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
