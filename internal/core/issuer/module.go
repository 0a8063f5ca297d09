package issuer

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 发行方注册表模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    kvInterface.Client
	Logger    logInterface.Logger `optional:"true"`
}

// Module 返回发行方注册表模块
func Module() fx.Option {
	return fx.Module("issuer",
		fx.Provide(ProvideRegistry),
	)
}

// ProvideRegistry 创建共享存储上的注册表，启动时订阅失效通知，停止时释放缓存
func ProvideRegistry(params ModuleParams) (*KVRegistry, error) {
	registry, err := NewKVRegistry(context.Background(), params.Client, DefaultCacheTTL,
		log.NewModuleLogger(params.Logger, "issuer"))
	if err != nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return registry.Watch(ctx)
		},
		OnStop: func(context.Context) error {
			return registry.Close()
		},
	})
	return registry, nil
}
