package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker is a set of revoked token ids whose entries expire with the token.
type Revoker interface {
	Revoke(ctx context.Context, key string, ttl time.Duration) error
	IsRevoked(ctx context.Context, key string) (bool, error)
}

type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, "revoked:"+key, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, "revoked:"+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
