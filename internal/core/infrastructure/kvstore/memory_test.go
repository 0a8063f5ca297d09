package kvstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

func newTestClient() (*MemoryClient, *timeutil.ManualClock) {
	clk := timeutil.NewManualClock(time.Unix(1_700_000_000, 0))
	return NewMemoryClient(WithMemoryClock(clk)), clk
}

// TestMemoryClient_Strings 测试字符串读写与TTL
func TestMemoryClient_Strings(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestClient()

	t.Run("写入与读取", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "a", "1", 0))
		v, ok, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	})

	t.Run("TTL过期", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "ttl", "x", time.Second))
		clk.Advance(999 * time.Millisecond)
		_, ok, _ := c.Get(ctx, "ttl")
		assert.True(t, ok)
		clk.Advance(time.Millisecond)
		_, ok, _ = c.Get(ctx, "ttl")
		assert.False(t, ok)
	})

	t.Run("SetNX", func(t *testing.T) {
		ok, err := c.SetNX(ctx, "nx", "1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = c.SetNX(ctx, "nx", "2", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		v, _, _ := c.Get(ctx, "nx")
		assert.Equal(t, "1", v)
	})

	t.Run("GetDel只返回一次", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "gd", "v", 0))
		v, ok, err := c.GetDel(ctx, "gd")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)
		_, ok, err = c.GetDel(ctx, "gd")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("类型错误", func(t *testing.T) {
		_, err := c.SAdd(ctx, "set", "m")
		require.NoError(t, err)
		_, _, err = c.Get(ctx, "set")
		assert.ErrorIs(t, err, ErrWrongType)
	})
}

// TestMemoryClient_CompareAndSwap 测试比较并交换
func TestMemoryClient_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()
	casSuite(t, c)

	_, err := c.SAdd(ctx, "cas-set", "m")
	require.NoError(t, err)
	_, err = c.CompareAndSwap(ctx, "cas-set", "", "v", 0)
	assert.ErrorIs(t, err, ErrWrongType)
}

// casSuite 内存与 Redis 实现共用的比较并交换用例
func casSuite(t *testing.T, c interface {
	Get(ctx context.Context, key string) (string, bool, error)
	CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error)
}) {
	t.Helper()
	ctx := context.Background()

	t.Run("键不存在时要求空期望值", func(t *testing.T) {
		ok, err := c.CompareAndSwap(ctx, "cas", "x", "1", 0)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = c.CompareAndSwap(ctx, "cas", "", "1", 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("期望值匹配时写入", func(t *testing.T) {
		ok, err := c.CompareAndSwap(ctx, "cas", "", "2", 0)
		require.NoError(t, err)
		assert.False(t, ok, "键已存在")
		ok, err = c.CompareAndSwap(ctx, "cas", "1", "2", 0)
		require.NoError(t, err)
		assert.True(t, ok)
		v, _, _ := c.Get(ctx, "cas")
		assert.Equal(t, "2", v)
	})

	t.Run("并发只有一个成功", func(t *testing.T) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := c.CompareAndSwap(ctx, "cas", "2", fmt.Sprintf("w%d", i), 0)
				if assert.NoError(t, err) && ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

// TestMemoryClient_WithoutGetDel 测试模拟旧版本服务端
func TestMemoryClient_WithoutGetDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(WithoutGetDel())
	v, err := c.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6.0.16", v)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	_, _, err = c.GetDel(ctx, "k")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)

	got, ok, err := c.EvalGetDel(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

// TestMemoryClient_Sets 测试集合操作
func TestMemoryClient_Sets(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()

	n, err := c.SAdd(ctx, "s", "b", "a", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := c.SIsMember(ctx, "s", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	members, err := c.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, members)

	n, err = c.SRem(ctx, "s", "a", "zz")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	card, err := c.SCard(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(1), card)
}

// TestMemoryClient_SlidingWindow 测试滑动窗口裁剪
func TestMemoryClient_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()
	window := time.Second

	count, err := c.SlidingWindowAdd(ctx, "rl", "m1", 1000, window)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = c.SlidingWindowAdd(ctx, "rl", "m2", 1500, window)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	oldest, ok, err := c.ZOldest(ctx, "rl")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1000), oldest)

	// 2000 时 m1 恰好满一个窗口被裁剪
	count, err = c.SlidingWindowAdd(ctx, "rl", "m3", 2000, window)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, c.ZRem(ctx, "rl", "m3"))
	oldest, _, _ = c.ZOldest(ctx, "rl")
	assert.Equal(t, int64(1500), oldest)
}

// TestMemoryClient_PubSub 测试发布订阅
func TestMemoryClient_PubSub(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()

	sub, err := c.Subscribe(ctx, "ch")
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, "ch", "hello"))
	require.NoError(t, c.Publish(ctx, "other", "ignored"))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("未收到消息")
	}

	require.NoError(t, sub.Close())
	_, open := <-sub.Messages()
	assert.False(t, open)

	// 关闭后发布不影响其他订阅
	assert.NoError(t, c.Publish(ctx, "ch", "after-close"))
}

// TestMemoryClient_Close 测试关闭后拒绝操作
func TestMemoryClient_Close(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()
	sub, err := c.Subscribe(ctx, "ch")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	_, open := <-sub.Messages()
	assert.False(t, open)
	assert.ErrorIs(t, c.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), ErrClientClosed)
	assert.NoError(t, sub.Close())
}

// TestMemoryClient_ConcurrentGetDel 测试并发 GetDel 只有一个成功
func TestMemoryClient_ConcurrentGetDel(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()
	for i := 0; i < 20; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), "v", 0))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := make(map[string]int)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				k := fmt.Sprintf("k%d", i)
				if _, ok, _ := c.GetDel(ctx, k); ok {
					mu.Lock()
					wins[k]++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, wins, 20)
	for k, n := range wins {
		assert.Equal(t, 1, n, k)
	}
}
