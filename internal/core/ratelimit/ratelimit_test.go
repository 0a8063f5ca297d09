package ratelimit

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

func newLimiter(t *testing.T, limit int64, window time.Duration) (*SlidingWindowLimiter, *timeutil.ManualClock) {
	t.Helper()
	clk := timeutil.NewManualClock(time.UnixMilli(1_700_000_000_000))
	client := kvstore.NewMemoryClient(kvstore.WithMemoryClock(clk))
	l, err := New(client, limit, window, WithClock(clk))
	require.NoError(t, err)
	return l, clk
}

// TestSlidingWindowLimiter 测试滑动窗口限流
func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("窗口内超限被拒", func(t *testing.T) {
		l, clk := newLimiter(t, 3, time.Second)
		for i := 1; i <= 3; i++ {
			d, err := l.Allow(ctx, "client-a")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, int64(i), d.Count)
			clk.Advance(100 * time.Millisecond)
		}
		d, err := l.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, int64(3), d.Count)
		// 最早请求在 t0，当前 t0+300ms，窗口 1s
		assert.Equal(t, 700*time.Millisecond, d.RetryAfter)
	})

	t.Run("窗口滑过后恢复", func(t *testing.T) {
		l, clk := newLimiter(t, 2, time.Second)
		for i := 0; i < 2; i++ {
			d, _ := l.Allow(ctx, "b")
			assert.True(t, d.Allowed)
		}
		d, _ := l.Allow(ctx, "b")
		assert.False(t, d.Allowed)

		clk.Advance(time.Second)
		d, err := l.Allow(ctx, "b")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(1), d.Count)
	})

	t.Run("被拒请求不占额度", func(t *testing.T) {
		l, clk := newLimiter(t, 1, time.Second)
		d, _ := l.Allow(ctx, "c")
		assert.True(t, d.Allowed)
		for i := 0; i < 5; i++ {
			clk.Advance(100 * time.Millisecond)
			d, _ = l.Allow(ctx, "c")
			assert.False(t, d.Allowed)
		}
		// 只有首个请求计入窗口，首个请求过期后立刻放行
		clk.Advance(500 * time.Millisecond)
		d, _ = l.Allow(ctx, "c")
		assert.True(t, d.Allowed)
	})

	t.Run("客户端相互独立", func(t *testing.T) {
		l, _ := newLimiter(t, 1, time.Minute)
		d, _ := l.Allow(ctx, "x")
		assert.True(t, d.Allowed)
		d, _ = l.Allow(ctx, "y")
		assert.True(t, d.Allowed)
		d, _ = l.Allow(ctx, "x")
		assert.False(t, d.Allowed)
	})

	t.Run("空标识", func(t *testing.T) {
		l, _ := newLimiter(t, 1, time.Minute)
		_, err := l.Allow(ctx, "")
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("非法配置", func(t *testing.T) {
		_, err := New(kvstore.NewMemoryClient(), 0, time.Second)
		assert.ErrorIs(t, err, types.ErrConfig)
		_, err = New(kvstore.NewMemoryClient(), 1, 0)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

// concurrentAllowed 同一标识并发请求，返回放行数量
func concurrentAllowed(t *testing.T, l *SlidingWindowLimiter, identifier string, n int) int64 {
	t.Helper()
	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(context.Background(), identifier)
			if assert.NoError(t, err) && d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()
	return allowed
}

// TestSlidingWindowLimiter_Concurrent 测试同一客户端并发请求不会超额放行或少计
func TestSlidingWindowLimiter_Concurrent(t *testing.T) {
	for round := 0; round < 3; round++ {
		l, _ := newLimiter(t, 5, time.Minute)
		assert.Equal(t, int64(5), concurrentAllowed(t, l, "burst", 64))

		d, err := l.Allow(context.Background(), "burst")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, int64(5), d.Count, "被拒请求必须全部撤回")
	}
}

// TestSlidingWindowLimiter_Redis 测试 MULTI/EXEC 路径下的并发限流，需要真实 Redis
func TestSlidingWindowLimiter_Redis(t *testing.T) {
	addr := os.Getenv("ZKID_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 500 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("Redis not available: %v", err)
		return
	}
	defer rdb.Close()

	client := kvstore.NewRedisClientFrom(rdb, "zkid-test:"+uuid.NewString()+":", nil)
	l, err := New(client, 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(5), concurrentAllowed(t, l, "burst", 64))

	_, err = client.Del(context.Background(), keyPrefix+"burst")
	require.NoError(t, err)
}
