package syncer

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	syncerconfig "github.com/weisyn/zkid/internal/config/syncer"
	"github.com/weisyn/zkid/internal/core/accumulator"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	eventInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/event"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// ModuleParams 同步模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Provider    config.Provider
	Accumulator *accumulator.MerkleAccumulator
	Client      kvInterface.Client      `optional:"true"`
	EventBus    eventInterface.EventBus `optional:"true"`
	Logger      logInterface.Logger     `optional:"true"`
}

// ModuleOutput 同步模块输出
type ModuleOutput struct {
	fx.Out

	Synced     *SyncedAccumulator
	Membership zkid.MembershipChecker
}

// Module 返回累加器同步模块
//
// 传输选择：
//   - sync.enabled 且 transport=redis：Redis 发布订阅 + 共享快照 + Rebuilder
//   - 其余：进程内事件总线，单实例部署
func Module() fx.Option {
	return fx.Module("syncer",
		fx.Provide(ProvideSyncedAccumulator),
	)
}

// ProvideSyncedAccumulator 包装累加器并挂上通道与重建器的生命周期
func ProvideSyncedAccumulator(params ModuleParams) (ModuleOutput, error) {
	opts := params.Provider.GetSync()
	logger := log.NewModuleLogger(params.Logger, "syncer")

	var (
		channel   zkid.SyncChannel
		snapshots *SnapshotStore
	)
	switch {
	case opts.Enabled && opts.Transport == syncerconfig.TransportRedis:
		if params.Client == nil {
			return ModuleOutput{}, fmt.Errorf("%w: redis sync transport requires a kv client", types.ErrConfig)
		}
		channel = NewRedisChannel(params.Client, opts.Channel, logger)
		snapshots = NewSnapshotStore(params.Client)
	case opts.Enabled && opts.Transport != syncerconfig.TransportLocal:
		return ModuleOutput{}, fmt.Errorf("%w: unknown sync transport %q", types.ErrConfig, opts.Transport)
	default:
		if params.EventBus == nil {
			return ModuleOutput{}, fmt.Errorf("%w: local sync transport requires an event bus", types.ErrConfig)
		}
		channel = NewLocalChannel(params.EventBus, logger)
	}

	syncedOpts := []SyncedOption{WithSyncLogger(logger)}
	if snapshots != nil {
		syncedOpts = append(syncedOpts, WithSnapshotStore(snapshots))
	}
	synced := NewSyncedAccumulator(params.Accumulator, channel, opts.NodeID, syncedOpts...)

	var rebuilder *Rebuilder
	if snapshots != nil {
		rebuilder = NewRebuilder(params.Accumulator, snapshots, opts.RebuildInterval, logger)
		synced.OnRemoteUpdate(rebuilder.HandleEvent)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := channel.Start(ctx); err != nil {
				return err
			}
			if rebuilder == nil {
				close(done)
				return nil
			}
			// 启动时先从共享快照追平
			if _, err := rebuilder.Rebuild(ctx); err != nil {
				if logger != nil {
					logger.Warnf("启动时累加器重建失败: %v", err)
				}
			}
			go func() {
				defer close(done)
				rebuilder.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return channel.Close()
		},
	})

	return ModuleOutput{Synced: synced, Membership: synced}, nil
}
