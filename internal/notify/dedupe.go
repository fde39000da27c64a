package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers which (event, farmer) notifications were already sent so
// redelivered events do not mail twice.
type Deduper interface {
	Claim(ctx context.Context, eventID string, farmerID int64) (bool, error)
	Release(ctx context.Context, eventID string, farmerID int64) error
}

type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func dedupeKey(eventID string, farmerID int64) string {
	return fmt.Sprintf("notified:%s:%d", eventID, farmerID)
}

// Claim reports true the first time it sees the pair.
func (d *RedisDeduper) Claim(ctx context.Context, eventID string, farmerID int64) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupeKey(eventID, farmerID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	return ok, nil
}

// Release forgets a claim whose mail could not be sent.
func (d *RedisDeduper) Release(ctx context.Context, eventID string, farmerID int64) error {
	return d.client.Del(ctx, dedupeKey(eventID, farmerID)).Err()
}
