package accumulator

import (
	"context"

	"go.uber.org/fx"

	accumulatorconfig "github.com/weisyn/zkid/internal/config/accumulator"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 累加器模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    logInterface.Logger `optional:"true"`
}

// Module 返回累加器模块
//
// 按 accumulator.backend 选择内存或 badger 节点存储，停止时关闭存储。
func Module() fx.Option {
	return fx.Module("accumulator",
		fx.Provide(ProvideAccumulator),
	)
}

// ProvideAccumulator 创建累加器
func ProvideAccumulator(params ModuleParams) (*MerkleAccumulator, error) {
	opts := params.Provider.GetAccumulator()
	logger := log.NewModuleLogger(params.Logger, "accumulator")

	var store NodeStore = NewMemoryNodeStore()
	if opts.Backend == accumulatorconfig.BackendBadger {
		bs, err := OpenBadgerNodeStore(opts.BadgerPath, logger)
		if err != nil {
			return nil, err
		}
		store = bs
	}

	acc, err := New(opts.Depth, WithNodeStore(store), WithLogger(logger), WithRootHistory(opts.RootHistory))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return acc.Close()
		},
	})
	return acc, nil
}
