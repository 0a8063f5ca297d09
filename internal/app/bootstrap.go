package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/api"
	"github.com/weisyn/zkid/internal/api/http/handlers"
	config "github.com/weisyn/zkid/internal/config"
	"github.com/weisyn/zkid/internal/core/accumulator"
	"github.com/weisyn/zkid/internal/core/infrastructure/event"
	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	log "github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkid/internal/core/issuer"
	"github.com/weisyn/zkid/internal/core/proving"
	"github.com/weisyn/zkid/internal/core/ratelimit"
	"github.com/weisyn/zkid/internal/core/replay"
	"github.com/weisyn/zkid/internal/core/revocation"
	"github.com/weisyn/zkid/internal/core/syncer"
	"github.com/weisyn/zkid/internal/core/verifier"
	configInterface "github.com/weisyn/zkid/pkg/interfaces/config"
	metricsInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/metrics"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configInterface.AppOptions { return b.opts }),
		config.Module(),  // 1. 配置(不依赖其他)
		log.Module(),     // 2. 日志(依赖配置)
		kvstore.Module(), // 3. 键值存储(依赖配置和日志)
		event.Module(),   // 4. 进程内事件总线
		fx.Provide(ProvideRegistry),
		metrics.Module(), // 5. 遥测观察者(依赖注册表)
	}
}

// SetupBusinessLayer 设置业务逻辑层模块
//
// 加载顺序遵循依赖关系：累加器 -> 同步 -> 存储类组件 -> 证明系统 -> 编排器
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		accumulator.Module(),
		syncer.Module(),
		replay.Module(),
		ratelimit.Module(),
		revocation.Module(),
		issuer.Module(),
		proving.Module(),
		verifier.Module(),

		fx.Provide(func(s *syncer.SyncedAccumulator) handlers.RootSource { return s }),
		fx.Invoke(RegisterCollectors),
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	if !b.opts.enableAPI {
		return nil
	}
	return []fx.Option{api.Module()}
}

// SetupModules 按层组装全部模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var all []fx.Option
	all = append(all, b.SetupInfrastructureLayer()...)
	all = append(all, b.SetupBusinessLayer()...)
	all = append(all, b.SetupApplicationLayer()...)
	return all
}

// Options 返回完整的 fx 选项（含日志配置）
func (b *Bootstrap) Options() []fx.Option {
	return append(b.SetupModules(), fx.NopLogger)
}

// CreateFxApp 创建fx应用
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(b.Options()...)
	return b.fxApp.Err()
}

// StartApp 启动应用
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// ProvideRegistry 进程级 Prometheus 注册表，附带 Go 运行时与进程采集器
func ProvideRegistry() (prometheus.Registerer, prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, nil, err
	}
	return reg, reg, nil
}

// CollectorParams 采集器注册依赖
type CollectorParams struct {
	fx.In

	Registerer  prometheus.Registerer
	Accumulator *syncer.SyncedAccumulator
	Issuers     *issuer.KVRegistry `optional:"true"`
}

// RegisterCollectors 注册累加器与模块统计采集器
func RegisterCollectors(params CollectorParams) error {
	if err := params.Registerer.Register(metrics.NewAccumulatorCollector(params.Accumulator)); err != nil {
		return err
	}
	reporters := []metricsInterface.StatsReporter{params.Accumulator}
	if params.Issuers != nil {
		reporters = append(reporters, params.Issuers)
	}
	return params.Registerer.Register(metrics.NewModuleCollector(reporters...))
}
