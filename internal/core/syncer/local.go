package syncer

import (
	"context"
	"sync/atomic"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	eventInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// TopicAccumulatorUpdated 累加器变更事件主题
const TopicAccumulatorUpdated eventInterface.EventType = "accumulator:updated"

// LocalChannel 进程内同步通道
//
// 多个 LocalChannel 共享同一事件总线即可模拟同机多节点，
// 事件经总线异步投递，关闭后既不发布也不再回调。
type LocalChannel struct {
	bus      eventInterface.EventBus
	handlers handlerSet
	started  atomic.Bool
	closed   atomic.Bool
	logger   logInterface.Logger
}

// 确保实现接口
var _ zkid.SyncChannel = (*LocalChannel)(nil)

// NewLocalChannel 创建进程内通道
func NewLocalChannel(bus eventInterface.EventBus, logger logInterface.Logger) *LocalChannel {
	return &LocalChannel{bus: bus, logger: log.OrNop(logger)}
}

// Publish 发布变更事件
func (c *LocalChannel) Publish(_ context.Context, event types.SyncEvent) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	c.bus.Publish(TopicAccumulatorUpdated, event)
	return nil
}

// OnUpdate 注册回调
func (c *LocalChannel) OnUpdate(handler zkid.SyncHandler) {
	c.handlers.add(handler)
}

// Start 订阅总线，重复调用无副作用
func (c *LocalChannel) Start(_ context.Context) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	return c.bus.SubscribeAsync(TopicAccumulatorUpdated, c.receive, true)
}

func (c *LocalChannel) receive(event types.SyncEvent) {
	if c.closed.Load() {
		return
	}
	c.handlers.dispatch(event, c.logger)
}

// Wait 等待已发布事件投递完成
func (c *LocalChannel) Wait() {
	c.bus.WaitAsync()
}

// Close 关闭通道
func (c *LocalChannel) Close() error {
	c.closed.Store(true)
	return nil
}
