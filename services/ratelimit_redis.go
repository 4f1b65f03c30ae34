package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const RATE_LIMIT_KEY_PREFIX = "ratelimit:"

// Проверка и инкремент одним скриптом, чтобы несколько процессов не обгоняли друг друга
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local max_count = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current >= max_count then
		local ttl = redis.call('PTTL', key)
		if ttl < 0 then
			redis.call('PEXPIRE', key, window_ms)
			ttl = window_ms
		end
		return {0, current, ttl}
	end

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end
	return {1, count, 0}
`)

// RedisRateLimiter - общий для всех инстансов лимитер на Redis
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = RATE_LIMIT_KEY_PREFIX
	}
	return &RedisRateLimiter{client: client, prefix: prefix}
}

func (r *RedisRateLimiter) Check(ctx context.Context, key string, maxCount int, window time.Duration) (RateDecision, error) {
	if r.client == nil {
		return RateDecision{}, fmt.Errorf("redis not available")
	}
	result, err := fixedWindowScript.Run(ctx, r.client, []string{r.prefix + key}, maxCount, window.Milliseconds()).Result()
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit script failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return RateDecision{}, fmt.Errorf("unexpected rate limit result: %v", result)
	}
	allowed, okA := values[0].(int64)
	count, okC := values[1].(int64)
	ttl, okT := values[2].(int64)
	if !okA || !okC || !okT {
		return RateDecision{}, fmt.Errorf("unexpected rate limit result: %v", result)
	}

	return RateDecision{
		Allowed:    allowed == 1,
		Count:      int(count),
		RetryAfter: time.Duration(ttl) * time.Millisecond,
	}, nil
}
