package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour

	// pendingMarker holds a reserved key until the todo id is known.
	pendingMarker = "pending"
	pendingTTL    = 30 * time.Second
)

// IdempotencyStore maps a client-supplied Idempotency-Key to the todo it
// created. Key format: idem:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims the key with SETNX. A pending reservation expires on its
// own so a crashed request does not block the key for the full TTL.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID, key string) (string, bool, error) {
	k := idempotencyKey(userID, key)

	ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return "", true, nil
	}

	value, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released or expired between the two calls; the caller retries.
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return todoIDFromValue(value), false, nil
}

// Complete records the created todo under a reserved key for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, userID, key, todoID string) error {
	if err := s.client.Set(ctx, idempotencyKey(userID, key), todoID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a reservation whose insert failed so a retry can claim it.
func (s *IdempotencyStore) Release(ctx context.Context, userID, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func todoIDFromValue(value string) string {
	if value == pendingMarker {
		return ""
	}
	return value
}

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}
