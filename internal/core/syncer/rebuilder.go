package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// Rebuilder 从共享快照恢复本地累加器
//
// 远端事件只触发重建请求，多次触发合并为一次；周期性重建补偿丢失的事件。
type Rebuilder struct {
	acc       zkid.SnapshotAccumulator
	snapshots *SnapshotStore
	interval  time.Duration
	logger    logInterface.Logger

	mu      sync.Mutex
	trigger chan struct{}
}

// NewRebuilder 创建重建器；interval ≤ 0 时不做周期重建
func NewRebuilder(acc zkid.SnapshotAccumulator, snapshots *SnapshotStore, interval time.Duration, logger logInterface.Logger) *Rebuilder {
	return &Rebuilder{
		acc:       acc,
		snapshots: snapshots,
		interval:  interval,
		logger:    log.OrNop(logger),
		trigger:   make(chan struct{}, 1),
	}
}

// Rebuild 当共享快照比本地新时恢复，返回是否发生恢复
func (r *Rebuilder) Rebuild(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok, err := r.snapshots.Load(ctx)
	if err != nil || !ok {
		return false, err
	}
	local := r.acc.GetRootInfo()
	if snap.Version < local.Version || (snap.Version == local.Version && snap.Root == local.Root) {
		return false, nil
	}
	if err := r.acc.Restore(snap); err != nil {
		return false, err
	}
	r.logger.Infof("累加器已从共享快照重建: version=%d->%d root=%s", local.Version, snap.Version, snap.Root)
	return true, nil
}

// HandleEvent 远端事件回调，只排队一次重建
func (r *Rebuilder) HandleEvent(_ types.SyncEvent) {
	r.Trigger()
}

// Trigger 请求一次重建
func (r *Rebuilder) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run 处理重建请求与周期重建，直到 ctx 取消
func (r *Rebuilder) Run(ctx context.Context) {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
		case <-tick:
		}
		if _, err := r.Rebuild(ctx); err != nil {
			r.logger.Warnf("累加器重建失败: %v", err)
		}
	}
}
