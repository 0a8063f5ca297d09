package replay

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 防重放模块依赖
type ModuleParams struct {
	fx.In

	Provider config.Provider
	Client   kvInterface.Client
	Logger   logInterface.Logger `optional:"true"`
}

// ModuleOutput 防重放模块输出
type ModuleOutput struct {
	fx.Out

	Challenges *ChallengeStore
	Nonces     *NonceStore
}

// Module 返回防重放模块
func Module() fx.Option {
	return fx.Module("replay",
		fx.Provide(ProvideStores),
	)
}

// ProvideStores 创建挑战与 nonce 存储；消费策略在此一次性确定
func ProvideStores(params ModuleParams) (ModuleOutput, error) {
	opts := params.Provider.GetReplay()
	strategy, err := ParseStrategy(opts.ConsumeStrategy)
	if err != nil {
		return ModuleOutput{}, err
	}
	challenges := NewChallengeStore(context.Background(), params.Client,
		WithStrategy(strategy),
		WithMaxNonceLength(opts.MaxNonceLength),
		WithLogger(log.NewModuleLogger(params.Logger, "replay")),
	)
	return ModuleOutput{
		Challenges: challenges,
		Nonces:     NewNonceStore(params.Client),
	}, nil
}
