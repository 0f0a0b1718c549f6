// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/passage/internal/platform/constants"
)

// # Redis Attempt Store

// attemptWindow is how long an IP's OAuth initiation counter lives. The TTL
// is anchored to the first attempt in the window (fixed window, not sliding).
const attemptWindow = 10 * time.Minute

// RedisAttemptStore implements [AttemptStore] on Redis INCR + EXPIRE.
//
// Counters are volatile by design: losing Redis only resets abuse tracking,
// it never affects sessions or users.
type RedisAttemptStore struct {
	client *redis.Client
}

// NewRedisAttemptStore wires a [RedisAttemptStore] to a Redis client.
func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

// Record increments the counter for an IP and returns the new total.
func (store *RedisAttemptStore) Record(ctx context.Context, ip string) (int64, error) {
	key := constants.RedisPrefixOAuthAttempt + ip

	// 1. Bump the counter
	count, err := store.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_attempt_store_incr_failed: %w", err)
	}

	// 2. Anchor the window TTL on the first attempt only
	if count == 1 {
		if err := store.client.Expire(ctx, key, attemptWindow).Err(); err != nil {
			return 0, fmt.Errorf("redis_attempt_store_expire_failed: %w", err)
		}
	}

	return count, nil
}
