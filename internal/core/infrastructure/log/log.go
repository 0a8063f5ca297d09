// Package log 提供基于 zap 的日志实现
package log

import (
	"fmt"
	"os"
	"path/filepath"

	logconfig "github.com/weisyn/zkid/internal/config/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 基于 zap 的日志记录器
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// 确保实现接口
var _ logInterface.Logger = (*Logger)(nil)

// New 根据配置创建日志记录器
//
// 控制台与文件两路输出通过 zapcore.NewTee 合并，文件由 lumberjack 轮转。
// 两路都关闭时返回丢弃输出的记录器。
func New(config *logconfig.Config) (logInterface.Logger, error) {
	if config == nil {
		config = logconfig.New(nil)
	}
	opts := config.GetOptions()
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	if opts.ToConsole || opts.FilePath == "stdout" || opts.FilePath == "stderr" {
		var out zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
		if opts.FilePath == "stderr" {
			out = zapcore.Lock(os.Stderr)
		}
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), out, level))
	}
	if config.HasFileOutput() {
		writer, err := newRotatingWriter(opts)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(config.CreateFileEncoder(), writer, level))
	}
	if len(cores) == 0 {
		return NewNop(), nil
	}

	var zapOptions []zap.Option
	if opts.EnableCaller {
		// 跳过一层封装，调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if opts.EnableStacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return FromZap(zap.New(zapcore.NewTee(cores...), zapOptions...)), nil
}

func newRotatingWriter(opts *logconfig.LogOptions) (zapcore.WriteSyncer, error) {
	path, err := filepath.Abs(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}), nil
}

// FromZap 包装已有的 zap.Logger
func FromZap(zapLogger *zap.Logger) *Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}
}

// NewNop 返回丢弃全部输出的日志记录器
func NewNop() logInterface.Logger {
	return FromZap(zap.NewNop())
}

// OrNop 未注入日志记录器时回退到 Nop
func OrNop(logger logInterface.Logger) logInterface.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// 将可变参数转换为zap字段
// 参数必须是偶数个，按键值对形式提供：key1, value1, key2, value2, ...
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		// 参数不是偶数个，忽略最后一个参数以确保键值对的完整性
		args = args[:len(args)-1]
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// Debug 记录调试级别的日志
func (l *Logger) Debug(msg string) {
	l.sugar.Debug(msg)
}

// Debugf 使用格式化字符串记录调试级别的日志
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 记录信息级别的日志
func (l *Logger) Info(msg string) {
	l.sugar.Info(msg)
}

// Infof 使用格式化字符串记录信息级别的日志
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 记录警告级别的日志
func (l *Logger) Warn(msg string) {
	l.sugar.Warn(msg)
}

// Warnf 使用格式化字符串记录警告级别的日志
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 记录错误级别的日志
func (l *Logger) Error(msg string) {
	l.sugar.Error(msg)
}

// Errorf 使用格式化字符串记录错误级别的日志
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Fatal 记录致命级别的日志，然后退出程序
func (l *Logger) Fatal(msg string) {
	l.sugar.Fatal(msg)
}

// Fatalf 使用格式化字符串记录致命级别的日志，然后退出程序
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zl := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zl,
		sugar:     zl.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
