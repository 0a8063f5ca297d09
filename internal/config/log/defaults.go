package log

import "go.uber.org/zap/zapcore"

const (
	defaultLogLevel         = "info"
	defaultFormat           = FormatConsole
	defaultToConsole        = true
	defaultFilePath         = ""
	defaultMaxSize          = 100 // MB
	defaultMaxBackups       = 10
	defaultMaxAge           = 30 // 天
	defaultCompress         = true
	defaultEnableCaller     = true
	defaultEnableStacktrace = false
)

var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
