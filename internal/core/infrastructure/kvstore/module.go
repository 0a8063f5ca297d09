package kvstore

import (
	"context"

	"go.uber.org/fx"

	kvstoreconfig "github.com/weisyn/zkid/internal/config/kvstore"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 定义键值存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    logInterface.Logger `optional:"true"`
}

// ModuleOutput 定义键值存储模块的输出
type ModuleOutput struct {
	fx.Out

	Client kvInterface.Client
}

// Module 返回键值存储模块
func Module() fx.Option {
	return fx.Module("kvstore",
		fx.Provide(ProvideClient),
	)
}

// ProvideClient 按配置创建 Redis 或内存客户端，并在停止时关闭
func ProvideClient(params ModuleParams) (ModuleOutput, error) {
	opts := params.Provider.GetKVStore()
	logger := log.NewModuleLogger(params.Logger, "kvstore")

	var client kvInterface.Client
	if opts.Backend == kvstoreconfig.BackendMemory {
		if logger != nil {
			logger.Warn("使用进程内存键值存储，挑战与吊销状态不会跨实例共享")
		}
		client = NewMemoryClient()
	} else {
		rc, err := NewRedisClient(context.Background(), opts, logger)
		if err != nil {
			return ModuleOutput{}, err
		}
		client = rc
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return ModuleOutput{Client: client}, nil
}
