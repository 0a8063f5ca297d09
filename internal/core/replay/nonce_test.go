package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	"github.com/weisyn/zkid/pkg/types"
)

// TestNonceStore 测试 nonce 标记
func TestNonceStore(t *testing.T) {
	ctx := context.Background()
	s := NewNonceStore(kvstore.NewMemoryClient())

	t.Run("标记与查询", func(t *testing.T) {
		has, err := s.Has(ctx, "a")
		require.NoError(t, err)
		assert.False(t, has)
		require.NoError(t, s.Add(ctx, "a", time.Minute))
		has, err = s.Has(ctx, "a")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("CheckAndAdd只成功一次", func(t *testing.T) {
		first, err := s.CheckAndAdd(ctx, "b", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)
		second, err := s.CheckAndAdd(ctx, "b", time.Minute)
		require.NoError(t, err)
		assert.False(t, second)
	})

	t.Run("参数校验", func(t *testing.T) {
		_, err := s.Has(ctx, "")
		assert.ErrorIs(t, err, types.ErrValidation)
		assert.ErrorIs(t, s.Add(ctx, "c", 0), ErrInvalidTTL)
		_, err = s.CheckAndAdd(ctx, "c", -time.Second)
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}
