// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/aihub/internal/platform/constants"
)

// RedisUsageRecorder implements [UsageRecorder] with one counter per key and UTC day.
type RedisUsageRecorder struct {
	client *redis.Client
}

// NewRedisUsageRecorder constructs a [RedisUsageRecorder].
func NewRedisUsageRecorder(client *redis.Client) *RedisUsageRecorder {
	return &RedisUsageRecorder{client: client}
}

// usageKey is "apikey:usage:{id}:{yyyymmdd}".
func usageKey(keyID int64, day time.Time) string {
	return constants.RedisPrefixKeyUsage + strconv.FormatInt(keyID, 10) + ":" + day.UTC().Format("20060102")
}

/*
Increment bumps the counter of the key for day.

Description: INCR and EXPIRE run in one pipeline so a counter never outlives
[constants.KeyUsageTTL].
*/
func (recorder *RedisUsageRecorder) Increment(context context.Context, keyID int64, day time.Time) error {
	key := usageKey(keyID, day)

	pipe := recorder.client.TxPipeline()
	pipe.Incr(context, key)
	pipe.Expire(context, key, constants.KeyUsageTTL)

	if _, err := pipe.Exec(context); err != nil {
		return fmt.Errorf("redis_usage_increment_failed: %w", err)
	}
	return nil
}

// Usage reads the counters of several keys with one MGET.
func (recorder *RedisUsageRecorder) Usage(context context.Context, keyIDs []int64, day time.Time) (map[int64]int64, error) {
	usage := make(map[int64]int64, len(keyIDs))
	if len(keyIDs) == 0 {
		return usage, nil
	}

	keys := make([]string, len(keyIDs))
	for i, id := range keyIDs {
		keys[i] = usageKey(id, day)
	}

	values, err := recorder.client.MGet(context, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis_usage_read_failed: %w", err)
	}

	for i, value := range values {
		text, ok := value.(string)
		if !ok {
			continue
		}
		if count, err := strconv.ParseInt(text, 10, 64); err == nil {
			usage[keyIDs[i]] = count
		}
	}
	return usage, nil
}
