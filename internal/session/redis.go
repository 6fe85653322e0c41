package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
)

// NewRedisClient parses redisURL, connects and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps each session field in its own Redis string with a TTL.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore returns a Store backed by client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Write(ctx context.Context, key Key, field Field, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", field, err)
	}
	if err := s.client.Set(ctx, key.storageKey(field), data, ttl).Err(); err != nil {
		return apperror.Datastore("redis set", err)
	}
	return nil
}

func (s *RedisStore) WriteIfAbsent(ctx context.Context, key Key, field Field, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", field, err)
	}
	created, err := s.client.SetNX(ctx, key.storageKey(field), data, ttl).Result()
	if err != nil {
		return false, apperror.Datastore("redis setnx", err)
	}
	return created, nil
}

func (s *RedisStore) Read(ctx context.Context, key Key, field Field, out interface{}) error {
	data, err := s.client.Get(ctx, key.storageKey(field)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return apperror.Datastore("redis get", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key Key, field Field) error {
	if err := s.client.Del(ctx, key.storageKey(field)).Err(); err != nil {
		return apperror.Datastore("redis del", err)
	}
	return nil
}
