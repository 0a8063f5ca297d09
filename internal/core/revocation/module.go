package revocation

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams 吊销黑名单模块依赖
type ModuleParams struct {
	fx.In

	Client kvInterface.Client
	Logger logInterface.Logger `optional:"true"`
}

// Module 返回吊销黑名单模块
func Module() fx.Option {
	return fx.Module("revocation",
		fx.Provide(func(params ModuleParams) *Store {
			return NewStore(params.Client, log.NewModuleLogger(params.Logger, "revocation"))
		}),
	)
}
