package revocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/types"
)

// TestStore 测试吊销黑名单
func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kvstore.NewMemoryClient(), nil)

	t.Run("吊销与查询", func(t *testing.T) {
		require.NoError(t, s.Revoke(ctx, "12345"))
		revoked, err := s.IsRevoked(ctx, "12345")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = s.IsRevoked(ctx, "54321")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("十六进制与十进制等价", func(t *testing.T) {
		require.NoError(t, s.Revoke(ctx, "0xff"))
		revoked, err := s.IsRevoked(ctx, "255")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("重复吊销计数不变", func(t *testing.T) {
		before, err := s.Count(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Revoke(ctx, "12345"))
		after, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("恢复", func(t *testing.T) {
		require.NoError(t, s.Reinstate(ctx, "12345"))
		revoked, err := s.IsRevoked(ctx, "12345")
		require.NoError(t, err)
		assert.False(t, revoked)
		// 恢复不存在的承诺无副作用
		require.NoError(t, s.Reinstate(ctx, "999"))
	})

	t.Run("非法承诺", func(t *testing.T) {
		err := s.Revoke(ctx, "not-a-number")
		assert.ErrorIs(t, err, types.ErrValidation)
		_, err = s.IsRevoked(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidCommitment)
	})
}
