package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hydratutor/internal/constants"
	"hydratutor/internal/stash"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings. ttl of zero keeps stashes forever.
func NewRedisStore(ctx context.Context, host, port, username, password string, ttl time.Duration) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(key Key) string {
	return constants.RedisKeyPrefix + key.String()
}

func (st *RedisStore) Save(ctx context.Context, key Key, entries []stash.Entry) error {
	doc, err := stash.Encode(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal stash: %w", err)
	}
	if err := st.client.Set(ctx, redisKey(key), doc, st.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save stash to Redis: %w", err)
	}
	return nil
}

func (st *RedisStore) Get(ctx context.Context, key Key) ([]stash.Entry, bool, error) {
	data, err := st.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get stash from Redis: %w", err)
	}

	entries, err := stash.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal stash: %w", err)
	}

	if st.ttl > 0 {
		st.client.Expire(ctx, redisKey(key), st.ttl)
	}
	return entries, true, nil
}

func (st *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := st.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete stash from Redis: %w", err)
	}
	return nil
}

func (st *RedisStore) Close() error {
	return st.client.Close()
}
