package kvstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRedisVersion 测试 INFO server 解析
func TestParseRedisVersion(t *testing.T) {
	info := "# Server\r\nredis_version:7.2.4\r\nredis_git_sha1:00000000\r\n"
	v, err := parseRedisVersion(info)
	require.NoError(t, err)
	assert.Equal(t, "7.2.4", v)

	_, err = parseRedisVersion("# Server\r\n")
	assert.ErrorIs(t, err, ErrBackend)
}

// TestStringResult 测试 redis.Nil 映射为不存在
func TestStringResult(t *testing.T) {
	v, ok, err := stringResult("GET", "", redis.Nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	_, _, err = stringResult("GET", "", errors.New("boom"))
	assert.ErrorIs(t, err, ErrBackend)

	v, ok, err = stringResult("GET", "x", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

// newLiveRedisClient 连接本地 Redis，不可用时跳过
func newLiveRedisClient(t *testing.T) *RedisClient {
	t.Helper()
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
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisClientFrom(rdb, "zkid-test:"+uuid.NewString()+":", nil)
}

// TestRedisClient_CompareAndSwap 测试脚本化比较并交换
func TestRedisClient_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	c := newLiveRedisClient(t)
	defer c.Del(ctx, "cas")
	casSuite(t, c)
}

// TestRedisClient_SlidingWindowAdd 测试 MULTI/EXEC 滑动窗口
func TestRedisClient_SlidingWindowAdd(t *testing.T) {
	ctx := context.Background()
	c := newLiveRedisClient(t)
	defer c.Del(ctx, "win")

	now := time.Now().UnixMilli()
	n, err := c.SlidingWindowAdd(ctx, "win", "a", now-2000, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = c.SlidingWindowAdd(ctx, "win", "b", now, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "窗口外的成员被裁剪")

	oldest, ok, err := c.ZOldest(ctx, "win")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, now, oldest)
}
