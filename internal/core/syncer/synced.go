package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	metricsInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// maxSaveAttempts 共享快照冲突时的最大重放次数
const maxSaveAttempts = 5

// SyncedAccumulator 本地变更后向集群广播通知的累加器包装
//
// 🎯 **职责**：
//   - 写操作先作用于内层累加器，版本变化时再持久化快照并发布 SyncEvent
//   - 丢弃来源为本节点的事件
//   - 记录已知的远端最高版本，用于判断本地是否落后
//
// 📋 **一致性**：事件只是失效提示，不携带承诺本身；落后节点通过
// Rebuilder 从共享快照恢复。共享快照按版本比较并交换写入，另一写者抢先时
// 本地先恢复到共享快照再重放变更，不会覆盖对方的写入。发布失败不回滚本地变更。
type SyncedAccumulator struct {
	inner     zkid.SnapshotAccumulator
	channel   zkid.SyncChannel
	snapshots *SnapshotStore
	nodeID    string
	logger    logInterface.Logger

	writeMu sync.Mutex

	lastRemote atomic.Uint64

	handlerMu      sync.RWMutex
	onRemoteUpdate zkid.SyncHandler
}

// 确保实现接口
var (
	_ zkid.MembershipChecker         = (*SyncedAccumulator)(nil)
	_ metricsInterface.StatsReporter = (*SyncedAccumulator)(nil)
)

// SyncedOption 选项
type SyncedOption func(*SyncedAccumulator)

// WithSnapshotStore 每次本地变更后写入共享快照
func WithSnapshotStore(s *SnapshotStore) SyncedOption {
	return func(a *SyncedAccumulator) { a.snapshots = s }
}

// WithSyncLogger 注入日志
func WithSyncLogger(l logInterface.Logger) SyncedOption {
	return func(a *SyncedAccumulator) { a.logger = l }
}

// NewSyncedAccumulator 包装内层累加器并向通道注册远端回调
func NewSyncedAccumulator(inner zkid.SnapshotAccumulator, channel zkid.SyncChannel, nodeID string, opts ...SyncedOption) *SyncedAccumulator {
	a := &SyncedAccumulator{inner: inner, channel: channel, nodeID: nodeID}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = log.OrNop(a.logger)
	channel.OnUpdate(a.handleRemote)
	return a
}

// OnRemoteUpdate 设置远端变更回调
func (a *SyncedAccumulator) OnRemoteUpdate(handler zkid.SyncHandler) {
	a.handlerMu.Lock()
	a.onRemoteUpdate = handler
	a.handlerMu.Unlock()
}

// Add 插入承诺并广播
func (a *SyncedAccumulator) Add(ctx context.Context, commitment string) error {
	return a.mutate(ctx, func() error { return a.inner.Add(commitment) })
}

// Remove 移除承诺并广播
func (a *SyncedAccumulator) Remove(ctx context.Context, commitment string) error {
	return a.mutate(ctx, func() error { return a.inner.Remove(commitment) })
}

func (a *SyncedAccumulator) mutate(ctx context.Context, op func() error) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	var info types.RootInfo
	for attempt := 1; ; attempt++ {
		before := a.inner.GetRootInfo().Version
		if err := op(); err != nil {
			return err
		}
		info = a.inner.GetRootInfo()
		if info.Version == before {
			return nil
		}
		if a.snapshots == nil {
			break
		}

		err := a.saveSnapshot(ctx, before)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrSnapshotConflict) || attempt >= maxSaveAttempts {
			a.logger.Errorf("写入共享快照失败: version=%d attempt=%d err=%v", info.Version, attempt, err)
			return WrapPublishError(info.Version, err)
		}
		// 其它写者已推进共享快照：丢弃本地变更，从共享快照恢复后重放
		if err := a.restoreShared(ctx); err != nil {
			a.logger.Errorf("冲突后恢复共享快照失败: version=%d err=%v", info.Version, err)
			return WrapPublishError(info.Version, err)
		}
		a.logger.Warnf("共享快照冲突，已恢复并重放变更: attempt=%d", attempt)
	}

	event := types.SyncEvent{
		Root:      info.Root,
		Version:   info.Version,
		UpdatedAt: info.UpdatedAt,
		Source:    a.nodeID,
	}
	if err := a.channel.Publish(ctx, event); err != nil {
		a.logger.Errorf("发布累加器变更失败: version=%d err=%v", info.Version, err)
		return WrapPublishError(info.Version, err)
	}
	return nil
}

func (a *SyncedAccumulator) saveSnapshot(ctx context.Context, base uint64) error {
	snap, err := a.inner.Snapshot()
	if err != nil {
		return err
	}
	return a.snapshots.Save(ctx, snap, base)
}

func (a *SyncedAccumulator) restoreShared(ctx context.Context) error {
	snap, ok, err := a.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: shared snapshot disappeared", ErrSnapshotConflict)
	}
	return a.inner.Restore(snap)
}

func (a *SyncedAccumulator) handleRemote(event types.SyncEvent) {
	if event.Source == a.nodeID {
		return
	}
	for {
		cur := a.lastRemote.Load()
		if event.Version <= cur || a.lastRemote.CompareAndSwap(cur, event.Version) {
			break
		}
	}

	a.handlerMu.RLock()
	handler := a.onRemoteUpdate
	a.handlerMu.RUnlock()
	if handler != nil {
		handler(event)
	}
}

// LastKnownRemoteVersion 已观察到的远端最高版本
func (a *SyncedAccumulator) LastKnownRemoteVersion() uint64 {
	return a.lastRemote.Load()
}

// IsStale 本地版本是否落后于已知远端版本
func (a *SyncedAccumulator) IsStale() bool {
	return a.lastRemote.Load() > a.inner.GetRootInfo().Version
}

// NodeID 本节点标识
func (a *SyncedAccumulator) NodeID() string { return a.nodeID }

// Inner 内层累加器
func (a *SyncedAccumulator) Inner() zkid.SnapshotAccumulator { return a.inner }

// Contains 承诺是否在树中
func (a *SyncedAccumulator) Contains(commitment string) bool { return a.inner.Contains(commitment) }

// GetRoot 当前根
func (a *SyncedAccumulator) GetRoot() string { return a.inner.GetRoot() }

// GetRootInfo 当前根信息
func (a *SyncedAccumulator) GetRootInfo() types.RootInfo { return a.inner.GetRootInfo() }

// IsKnownRoot 是否为当前根或最近历史根
func (a *SyncedAccumulator) IsKnownRoot(root string) bool { return a.inner.IsKnownRoot(root) }

// GetWitness 成员见证
func (a *SyncedAccumulator) GetWitness(commitment string) (*types.Witness, error) {
	return a.inner.GetWitness(commitment)
}

// Size 当前成员数
func (a *SyncedAccumulator) Size() int { return a.inner.Size() }

// ModuleName 组件名称
func (a *SyncedAccumulator) ModuleName() string { return "accumulator" }

// CollectStats 上报叶子数
func (a *SyncedAccumulator) CollectStats() metricsInterface.ModuleStats {
	return metricsInterface.ModuleStats{Module: a.ModuleName(), Objects: int64(a.inner.Size())}
}
