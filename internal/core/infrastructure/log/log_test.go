package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logconfig "github.com/weisyn/zkid/internal/config/log"
	"github.com/weisyn/zkid/pkg/types"
)

// TestFileOutput 测试文件输出与JSON编码
func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "zkid.log")
	level := "debug"
	cfg := logconfig.New(&types.UserLogConfig{Level: &level, FilePath: &path})
	require.False(t, cfg.GetOptions().ToConsole)

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.With("module", "verifier", "attempt", 2).Info("验证完成")
	logger.Debugf("挑战 %s 已签发", "n-1")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "验证完成", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "verifier", entry["module"])
	assert.Equal(t, float64(2), entry["attempt"])
}

// TestLevelFiltering 测试日志级别过滤
func TestLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := FromZap(zap.New(core))

	logger.Info("忽略")
	logger.Warn("保留")
	logger.Errorf("错误 %d", 1)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "保留", logs.All()[0].Message)
	assert.Equal(t, "错误 1", logs.All()[1].Message)
}

// TestModuleLogger 测试模块日志字段
func TestModuleLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := FromZap(zap.New(core))

	NewModuleLogger(base, "accumulator").Info("叶子已添加")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "accumulator", logs.All()[0].ContextMap()["module"])

	assert.Nil(t, NewModuleLogger(nil, "x"))
}

// TestToZapFields 测试奇数参数被截断
func TestToZapFields(t *testing.T) {
	fields := toZapFields("a", 1, "b")
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Key)
}

// TestNop 测试 Nop 日志记录器
func TestNop(t *testing.T) {
	l := OrNop(nil)
	require.NotNil(t, l)
	l.Info("无输出")
	assert.NotNil(t, l.GetZapLogger())
	assert.NoError(t, l.Sync())
}

// TestConfigMerge 测试用户配置覆盖默认值
func TestConfigMerge(t *testing.T) {
	path := "/var/log/zkid.log"
	console := true
	format := logconfig.FormatJSON
	size := 20
	cfg := logconfig.New(&types.UserLogConfig{FilePath: &path, ToConsole: &console, Format: &format, MaxSizeMB: &size})
	opts := cfg.GetOptions()

	assert.True(t, opts.ToConsole, "显式打开的控制台输出不被文件路径覆盖")
	assert.Equal(t, 20, opts.MaxSize)
	assert.Equal(t, zapcore.InfoLevel, cfg.GetZapLevel())
	assert.True(t, cfg.HasFileOutput())

	bad := "verbose"
	assert.Equal(t, zapcore.InfoLevel, logconfig.New(&types.UserLogConfig{Level: &bad}).GetZapLevel())
}

// TestNoOutputs 两路输出都关闭时返回 Nop
func TestNoOutputs(t *testing.T) {
	off := false
	logger, err := New(logconfig.New(&types.UserLogConfig{ToConsole: &off}))
	require.NoError(t, err)
	logger.Error("丢弃")
	assert.NoError(t, logger.Sync())
}
