package http

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/api/http/handlers"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/internal/core/replay"
	"github.com/weisyn/zkid/internal/core/verifier"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleParams HTTP 模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Config      config.Provider
	Verifier    *verifier.Orchestrator
	Challenges  *replay.ChallengeStore `optional:"true"`
	Accumulator handlers.RootSource    `optional:"true"`
	Registerer  prometheus.Registerer  `optional:"true"`
	Gatherer    prometheus.Gatherer    `optional:"true"`
	Logger      logInterface.Logger    `optional:"true"`
}

// Module 返回 HTTP 接入模块
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(ProvideServer),
	)
}

// ProvideServer 创建服务器；启用时随应用生命周期启停
func ProvideServer(params ModuleParams) (*Server, error) {
	opts := Options{
		Config:       params.Config.GetAPI(),
		Verifier:     params.Verifier,
		ChallengeTTL: params.Config.GetReplay().ChallengeTTL,
		Registerer:   params.Registerer,
		Gatherer:     params.Gatherer,
		Logger:       log.NewModuleLogger(params.Logger, "http"),
	}
	// 避免把 nil 指针装进接口
	if params.Challenges != nil {
		opts.Challenges = params.Challenges
	}
	if params.Accumulator != nil {
		opts.Accumulator = params.Accumulator
	}

	server, err := NewServer(opts)
	if err != nil {
		return nil, err
	}
	if !opts.Config.Enabled {
		server.logger.Info("HTTP服务在配置中被禁用")
		return server, nil
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
	return server, nil
}
