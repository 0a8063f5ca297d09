package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// RedisChannel 基于键值存储发布订阅的同步通道
//
// 📋 **语义**：
//   - 载荷为 SyncEvent 的 JSON
//   - 至多一次投递，订阅断开期间的事件丢失，由周期性重建兜底
//   - 无法解析的消息记录告警后丢弃
type RedisChannel struct {
	client   kvInterface.Client
	channel  string
	handlers handlerSet
	logger   logInterface.Logger

	mu     sync.Mutex
	sub    kvInterface.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// 确保实现接口
var _ zkid.SyncChannel = (*RedisChannel)(nil)

// NewRedisChannel 创建发布订阅通道
func NewRedisChannel(client kvInterface.Client, channel string, logger logInterface.Logger) *RedisChannel {
	return &RedisChannel{client: client, channel: channel, logger: log.OrNop(logger)}
}

// Publish 发布变更事件
func (c *RedisChannel) Publish(ctx context.Context, event types.SyncEvent) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}
	return c.client.Publish(ctx, c.channel, string(payload))
}

// OnUpdate 注册回调
func (c *RedisChannel) OnUpdate(handler zkid.SyncHandler) {
	c.handlers.add(handler)
}

// Start 建立订阅并启动接收协程，重复调用无副作用
func (c *RedisChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	if c.sub != nil {
		return nil
	}
	sub, err := c.client.Subscribe(ctx, c.channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.channel, err)
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	c.sub, c.cancel = sub, cancel

	c.wg.Add(1)
	go c.loop(loopCtx, sub)
	c.logger.Infof("同步通道已订阅: channel=%s", c.channel)
	return nil
}

func (c *RedisChannel) loop(ctx context.Context, sub kvInterface.Subscription) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			var event types.SyncEvent
			if err := json.Unmarshal([]byte(msg), &event); err != nil {
				c.logger.Warnf("丢弃无法解析的同步消息: channel=%s err=%v", c.channel, err)
				continue
			}
			c.handlers.dispatch(event, c.logger)
		}
	}
}

// Close 取消订阅并等待接收协程退出
func (c *RedisChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub, cancel := c.sub, c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if sub != nil {
		err = sub.Close()
	}
	c.wg.Wait()
	return err
}
