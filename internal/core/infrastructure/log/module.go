package log

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	logconfig "github.com/weisyn/zkid/internal/config/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 日志模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle `optional:"true"`
	Provider  config.Provider
}

// ModuleOutput 日志模块输出
type ModuleOutput struct {
	fx.Out

	Logger logInterface.Logger
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 按配置创建日志记录器，停止时刷新缓冲
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(logconfig.New(params.Provider.GetLog()))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("根据用户配置创建日志记录器失败: %w", err)
	}
	if params.Lifecycle != nil {
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				// 标准输出不支持 fsync，忽略其错误
				_ = logger.Sync()
				return nil
			},
		})
	}
	return ModuleOutput{Logger: logger}, nil
}

// NewModuleLogger 创建带 module 字段的 logger；base 为 nil 时返回 nil
func NewModuleLogger(base logInterface.Logger, module string) logInterface.Logger {
	if base == nil {
		return nil
	}
	return base.With("module", module)
}
