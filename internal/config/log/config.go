package log

import (
	"go.uber.org/zap/zapcore"

	configtypes "github.com/weisyn/zkid/pkg/types"
)

// 输出格式
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LogOptions 日志配置选项
type LogOptions struct {
	Level     string `json:"level"`      // debug | info | warn | error | fatal
	Format    string `json:"format"`     // 控制台输出格式 console | json
	ToConsole bool   `json:"to_console"` // 是否输出到标准输出
	FilePath  string `json:"file_path"`  // 日志文件路径，空表示不写文件

	// lumberjack 轮转
	MaxSize    int  `json:"max_size"`    // MB
	MaxBackups int  `json:"max_backups"` // 保留文件数
	MaxAge     int  `json:"max_age"`     // 天
	Compress   bool `json:"compress"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"` // Error 级别附带堆栈
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置
//
// userConfig 可以是 *types.UserLogConfig（合并默认值）或已经合并好的 *LogOptions。
func New(userConfig interface{}) *Config {
	options := createDefaultLogOptions()
	switch cfg := userConfig.(type) {
	case *configtypes.UserLogConfig:
		applyUserLogConfig(options, cfg)
	case *LogOptions:
		if cfg != nil {
			merged := *cfg
			options = &merged
		}
	}
	return &Config{options: options}
}

func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:            defaultLogLevel,
		Format:           defaultFormat,
		ToConsole:        defaultToConsole,
		FilePath:         defaultFilePath,
		MaxSize:          defaultMaxSize,
		MaxBackups:       defaultMaxBackups,
		MaxAge:           defaultMaxAge,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
	}
}

func applyUserLogConfig(options *LogOptions, cfg *configtypes.UserLogConfig) {
	if cfg == nil {
		return
	}
	if cfg.Level != nil {
		options.Level = *cfg.Level
	}
	if cfg.Format != nil {
		options.Format = *cfg.Format
	}
	if cfg.FilePath != nil && *cfg.FilePath != "" {
		options.FilePath = *cfg.FilePath
		// 写文件时默认关闭控制台，除非显式打开
		options.ToConsole = false
	}
	if cfg.ToConsole != nil {
		options.ToConsole = *cfg.ToConsole
	}
	if cfg.MaxSizeMB != nil && *cfg.MaxSizeMB > 0 {
		options.MaxSize = *cfg.MaxSizeMB
	}
	if cfg.MaxBackups != nil && *cfg.MaxBackups >= 0 {
		options.MaxBackups = *cfg.MaxBackups
	}
	if cfg.MaxAgeDays != nil && *cfg.MaxAgeDays >= 0 {
		options.MaxAge = *cfg.MaxAgeDays
	}
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetZapLevel 解析日志级别，无法识别时返回 Info
func (c *Config) GetZapLevel() zapcore.Level {
	if level, ok := levelMap[c.options.Level]; ok {
		return level
	}
	return zapcore.InfoLevel
}

// HasFileOutput 是否写入日志文件
func (c *Config) HasFileOutput() bool {
	p := c.options.FilePath
	return p != "" && p != "stdout" && p != "stderr"
}

// CreateFileEncoder 文件始终使用 JSON 编码
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig(zapcore.ISO8601TimeEncoder, zapcore.LowercaseLevelEncoder))
}

// CreateConsoleEncoder 控制台编码器；format=json 时与文件格式一致，便于容器日志采集
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	if c.options.Format == FormatJSON {
		return c.CreateFileEncoder()
	}
	return zapcore.NewConsoleEncoder(encoderConfig(zapcore.TimeEncoderOfLayout("15:04:05.000"), zapcore.CapitalColorLevelEncoder))
}

func encoderConfig(timeEnc zapcore.TimeEncoder, levelEnc zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     timeEnc,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    levelEnc,
	}
}
