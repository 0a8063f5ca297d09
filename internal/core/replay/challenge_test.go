package replay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

// TestResolveStrategy 测试构造时的策略解析
func TestResolveStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("新版本使用GETDEL", func(t *testing.T) {
		s := NewChallengeStore(ctx, kvstore.NewMemoryClient())
		assert.Equal(t, StrategyNativeAtomic, s.Strategy())
	})

	t.Run("旧版本使用脚本", func(t *testing.T) {
		s := NewChallengeStore(ctx, kvstore.NewMemoryClient(kvstore.WithoutGetDel()))
		assert.Equal(t, StrategyScriptedAtomic, s.Strategy())
	})

	t.Run("显式策略不探测", func(t *testing.T) {
		s := NewChallengeStore(ctx, kvstore.NewMemoryClient(), WithStrategy(StrategyNonAtomic))
		assert.Equal(t, StrategyNonAtomic, s.Strategy())
	})

	t.Run("解析策略名", func(t *testing.T) {
		s, err := ParseStrategy(" Scripted-Atomic ")
		require.NoError(t, err)
		assert.Equal(t, StrategyScriptedAtomic, s)
		s, err = ParseStrategy("")
		require.NoError(t, err)
		assert.Equal(t, StrategyAuto, s)
		_, err = ParseStrategy("lua")
		assert.ErrorIs(t, err, types.ErrConfig)
	})

	t.Run("版本比较", func(t *testing.T) {
		assert.True(t, versionAtLeast("6.2.0", 6, 2))
		assert.True(t, versionAtLeast("7.0.11", 6, 2))
		assert.False(t, versionAtLeast("6.0.16", 6, 2))
		assert.False(t, versionAtLeast("5.9", 6, 2))
		assert.False(t, versionAtLeast("garbage", 6, 2))
	})
}

// TestChallengeStore_IssueConsume 测试签发与消费
func TestChallengeStore_IssueConsume(t *testing.T) {
	ctx := context.Background()
	strategies := []ConsumeStrategy{StrategyNativeAtomic, StrategyScriptedAtomic, StrategyNonAtomic}

	for _, strategy := range strategies {
		strategy := strategy
		t.Run(string(strategy), func(t *testing.T) {
			s := NewChallengeStore(ctx, kvstore.NewMemoryClient(), WithStrategy(strategy))

			require.NoError(t, s.Issue(ctx, "n1", 1_700_000_000_123, time.Minute))
			ts, ok, err := s.Consume(ctx, "n1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(1_700_000_000_123), ts)

			_, ok, err = s.Consume(ctx, "n1")
			require.NoError(t, err)
			assert.False(t, ok, "第二次消费必须失败")

			_, ok, err = s.Consume(ctx, "never-issued")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

// TestChallengeStore_Expiry 测试挑战过期
func TestChallengeStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clk := timeutil.NewManualClock(time.Unix(1_700_000_000, 0))
	s := NewChallengeStore(ctx, kvstore.NewMemoryClient(kvstore.WithMemoryClock(clk)))

	require.NoError(t, s.Issue(ctx, "short", 1, time.Second))
	clk.Advance(2 * time.Second)
	_, ok, err := s.Consume(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestChallengeStore_Validation 测试参数校验先于存储访问
func TestChallengeStore_Validation(t *testing.T) {
	ctx := context.Background()
	client := kvstore.NewMemoryClient()
	s := NewChallengeStore(ctx, client)
	// 关闭后任何存储访问都会失败，校验错误必须先于存储错误返回
	require.NoError(t, client.Close())

	err := s.Issue(ctx, "", 1, time.Minute)
	assert.ErrorIs(t, err, types.ErrValidation)

	err = s.Issue(ctx, strings.Repeat("a", MaxNonceLength+1), 1, time.Minute)
	assert.ErrorIs(t, err, types.ErrValidation)

	err = s.Issue(ctx, "ok", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, _, err = s.Consume(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidNonce)

	// 合法参数才会触达存储
	err = s.Issue(ctx, "ok", 1, time.Minute)
	assert.ErrorIs(t, err, kvstore.ErrClientClosed)
}

// TestChallengeStore_Duplicate 测试重复签发
func TestChallengeStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := NewChallengeStore(ctx, kvstore.NewMemoryClient())
	require.NoError(t, s.Issue(ctx, "dup", 1, time.Minute))
	err := s.Issue(ctx, "dup", 2, time.Minute)
	assert.ErrorIs(t, err, ErrDuplicateChallenge)
	assert.ErrorIs(t, err, types.ErrReplay)

	ts, ok, _ := s.Consume(ctx, "dup")
	assert.True(t, ok)
	assert.Equal(t, int64(1), ts, "重复签发不得覆盖原时间戳")
}

// TestChallengeStore_SingleConsume 测试并发消费至多一次成功
func TestChallengeStore_SingleConsume(t *testing.T) {
	ctx := context.Background()
	for _, strategy := range []ConsumeStrategy{StrategyNativeAtomic, StrategyScriptedAtomic} {
		strategy := strategy
		t.Run(string(strategy), func(t *testing.T) {
			s := NewChallengeStore(ctx, kvstore.NewMemoryClient(), WithStrategy(strategy))
			require.NoError(t, s.Issue(ctx, "race", 42, time.Minute))

			const workers = 32
			var (
				wg      sync.WaitGroup
				winners int32
				start   = make(chan struct{})
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, ok, err := s.Consume(ctx, "race")
					if err == nil && ok {
						atomic.AddInt32(&winners, 1)
					}
				}()
			}
			close(start)
			wg.Wait()
			assert.Equal(t, int32(1), winners)
		})
	}
}

// TestChallengeStore_IssueChallenge 测试服务端签发
func TestChallengeStore_IssueChallenge(t *testing.T) {
	ctx := context.Background()
	clk := timeutil.NewManualClock(time.UnixMilli(1_700_000_000_500))
	s := NewChallengeStore(ctx, kvstore.NewMemoryClient(kvstore.WithMemoryClock(clk)), WithClock(clk))

	rec, err := s.IssueChallenge(ctx, 30*time.Second)
	require.NoError(t, err)
	assert.Len(t, rec.Nonce, 2*challengeNonceBytes)
	assert.Equal(t, int64(1_700_000_000_500), rec.IssuedAtMs)
	assert.Equal(t, int64(30_000), rec.TTLMs)

	other, err := s.IssueChallenge(ctx, 30*time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, rec.Nonce, other.Nonce)

	ts, ok, err := s.Consume(ctx, rec.Nonce)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rec.IssuedAtMs, ts)

	_, err = s.IssueChallenge(ctx, 0)
	assert.True(t, errors.Is(err, ErrInvalidTTL))
}
