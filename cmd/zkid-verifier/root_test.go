package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/configs"
	"github.com/weisyn/zkid/pkg/types"
)

func withFlags(t *testing.T, flags GlobalFlags) {
	t.Helper()
	prev := globalFlags
	globalFlags = flags
	t.Cleanup(func() { globalFlags = prev })
}

// TestLoadProvider 测试配置来源优先级
func TestLoadProvider(t *testing.T) {
	t.Run("内置配置均可通过校验", func(t *testing.T) {
		for _, env := range []string{configs.EnvDevelopment, configs.EnvProduction} {
			withFlags(t, GlobalFlags{Env: env})
			_, err := loadProvider()
			assert.NoError(t, err, env)
		}
	})

	t.Run("配置文件优先于环境名", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"accumulator":{"depth":5}}`), 0600))
		withFlags(t, GlobalFlags{ConfigPath: path, Env: configs.EnvProduction})

		p, err := loadProvider()
		require.NoError(t, err)
		assert.Equal(t, 5, p.GetAccumulator().Depth)
	})

	t.Run("未知环境", func(t *testing.T) {
		withFlags(t, GlobalFlags{Env: "staging"})
		_, err := loadProvider()
		assert.ErrorIs(t, err, types.ErrConfig)
	})

	t.Run("非法配置被拒绝", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"accumulator":{"depth":64}}`), 0600))
		withFlags(t, GlobalFlags{ConfigPath: path})
		_, err := loadProvider()
		assert.ErrorIs(t, err, types.ErrConfig)
	})
}

// TestOpenSharedStore_Memory 运维命令拒绝内存后端
func TestOpenSharedStore_Memory(t *testing.T) {
	withFlags(t, GlobalFlags{Env: configs.EnvDevelopment})
	p, err := loadProvider()
	require.NoError(t, err)
	_, err = openSharedStore(t.Context(), p, nil)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestParseOptionalTime(t *testing.T) {
	v, err := parseOptionalTime("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseOptionalTime("2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 2026, v.Year())

	_, err = parseOptionalTime("tomorrow")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "zkid-verifier")
}
