package storage

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each key as a plain Redis string under a namespace prefix.
type RedisBackend struct {
	rdb       *redis.Client
	namespace string
}

func NewRedisBackend(rdb *redis.Client, namespace string) *RedisBackend {
	return &RedisBackend{rdb: rdb, namespace: namespace}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.rdb.Get(ctx, b.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	return b.rdb.Set(ctx, b.namespace+key, value, 0).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.rdb.Del(ctx, b.namespace+key).Err()
}

func (b *RedisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(b.namespace+prefix) + "*"
	keys := make([]string, 0)
	iter := b.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), b.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
