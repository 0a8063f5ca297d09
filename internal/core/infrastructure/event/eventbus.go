// 基于asaskevich/EventBus的事件总线实现

package event

import (
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	eventconfig "github.com/weisyn/zkid/internal/config/event"
	eventInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/event"
)

// EventBus 是基于asaskevich/EventBus的事件总线
//
// 🎯 **特性**：
// - 与 asaskevich/EventBus 语义一致
// - 配置禁用时所有操作静默成功
// - 内置发布计数
type EventBus struct {
	bus    evbus.Bus           // 底层事件总线
	config *eventconfig.Config // 配置

	published atomic.Uint64 // 已发布事件数
}

// 确保实现接口
var _ eventInterface.EventBus = (*EventBus)(nil)

// New 创建事件总线实例，config 为 nil 时使用默认配置
func New(config *eventconfig.Config) *EventBus {
	if config == nil {
		config = eventconfig.New(nil)
	}
	return &EventBus{bus: evbus.New(), config: config}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType eventInterface.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil // 如果事件系统未启用，静默成功
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType eventInterface.EventType, handler interface{}, transactional bool) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType eventInterface.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType eventInterface.EventType, args ...interface{}) {
	if !eb.config.IsEnabled() {
		return
	}
	eb.published.Add(1)
	eb.bus.Publish(string(eventType), args...)
}

// HasCallback 检查是否有回调
func (eb *EventBus) HasCallback(eventType eventInterface.EventType) bool {
	if !eb.config.IsEnabled() {
		return false
	}
	return eb.bus.HasCallback(string(eventType))
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	if !eb.config.IsEnabled() {
		return
	}
	eb.bus.WaitAsync()
}

// Published 已发布事件数
func (eb *EventBus) Published() uint64 {
	return eb.published.Load()
}
