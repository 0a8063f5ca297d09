package ratelimit

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 限流模块依赖
type ModuleParams struct {
	fx.In

	Provider config.Provider
	Client   kvInterface.Client
	Logger   logInterface.Logger `optional:"true"`
}

// Module 返回限流模块；ratelimit.enabled=false 时提供 nil
func Module() fx.Option {
	return fx.Module("ratelimit",
		fx.Provide(ProvideLimiter),
	)
}

// ProvideLimiter 创建滑动窗口限流器
func ProvideLimiter(params ModuleParams) (*SlidingWindowLimiter, error) {
	opts := params.Provider.GetRateLimit()
	if !opts.Enabled {
		return nil, nil
	}
	return New(params.Client, opts.Limit, opts.Window, WithLogger(log.NewModuleLogger(params.Logger, "ratelimit")))
}
