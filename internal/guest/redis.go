package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStorage stores guest values under guest:{session}:{key}. Every write
// refreshes the TTL, so an idle guest cart expires on its own.
type RedisStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStorage(rdb *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, ttl: ttl}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return "", false, nil
	}

	value, err := s.rdb.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rdb.Get: %w", err)
	}

	return value, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return ErrNoSession
	}

	if err := s.rdb.Set(ctx, redisKey(sessionID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("rdb.Set: %w", err)
	}

	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}

	if err := s.rdb.Del(ctx, redisKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("rdb.Del: %w", err)
	}

	return nil
}

func redisKey(sessionID, key string) string {
	return fmt.Sprintf("guest:%s:%s", sessionID, key)
}
