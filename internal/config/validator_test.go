package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/pkg/types"
)

// TestValidate 测试合并后的配置校验
func TestValidate(t *testing.T) {
	t.Run("默认配置合法", func(t *testing.T) {
		assert.NoError(t, Validate(NewProvider(nil)))
	})

	t.Run("逐项报告错误", func(t *testing.T) {
		depth := 32
		strategy := "eventually"
		enabled := true
		transport := "redis"
		memory := "memory"
		cfg := &types.AppConfig{
			KVStore:     &types.UserKVStoreConfig{Backend: &memory},
			Accumulator: &types.UserAccumulatorConfig{Depth: &depth},
			Replay:      &types.UserReplayConfig{ConsumeStrategy: &strategy},
			Sync:        &types.UserSyncConfig{Enabled: &enabled, Transport: &transport},
		}
		err := Validate(NewProvider(cfg))
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrConfig)

		var verrs *ValidationErrors
		require.True(t, errors.As(err, &verrs))
		fields := make([]string, 0, len(verrs.Errors))
		for _, e := range verrs.Errors {
			fields = append(fields, e.(*ValidationError).Field)
		}
		assert.ElementsMatch(t, []string{"accumulator.depth", "replay.consume_strategy", "sync.transport"}, fields)
	})

	t.Run("策略名大小写不敏感", func(t *testing.T) {
		strategy := "Non-Atomic"
		cfg := &types.AppConfig{Replay: &types.UserReplayConfig{ConsumeStrategy: &strategy}}
		assert.NoError(t, Validate(NewProvider(cfg)))
	})
}
