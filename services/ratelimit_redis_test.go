package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRateLimiterBoundary(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, "")

	for i := 1; i <= 3; i++ {
		decision, err := limiter.Check(ctx, "comment:ip", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, i, decision.Count)
	}
	assert.Equal(t, time.Minute, mr.TTL(RATE_LIMIT_KEY_PREFIX+"comment:ip"))

	decision, err := limiter.Check(ctx, "comment:ip", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 3, decision.Count)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, decision.RetryAfter, time.Minute)

	mr.FastForward(61 * time.Second)
	decision, err = limiter.Check(ctx, "comment:ip", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Count)
}

func TestRedisRateLimiterConcurrent(t *testing.T) {
	ctx := context.Background()
	_, client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, "test:")

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Check(ctx, "block:ip", 5, time.Minute)
			if err == nil && decision.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5), allowed.Load())
}

func TestRedisRateLimiterFailsOpenThroughActionLimiter(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	limiter := NewActionLimiter(NewRedisRateLimiter(client, ""), nil)

	mr.Close()
	_, err := NewRedisRateLimiter(client, "").Check(ctx, "comment:ip", 1, time.Minute)
	require.Error(t, err)
	assert.NoError(t, limiter.Allow(ctx, ActionComment, "ip"))
}
