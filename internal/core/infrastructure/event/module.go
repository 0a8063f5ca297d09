// Package event 提供进程内事件总线
package event

import (
	"context"

	"go.uber.org/fx"

	eventInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ModuleInput 事件模块输入依赖
type ModuleInput struct {
	fx.In

	Logger    log.Logger   `optional:"true"` // 日志记录器（可选）
	Lifecycle fx.Lifecycle // 生命周期管理
}

// ModuleOutput 事件模块输出服务
type ModuleOutput struct {
	fx.Out

	EventBus eventInterface.EventBus // 基础事件总线
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(
			func(input ModuleInput) ModuleOutput {
				bus := New(nil)
				input.Lifecycle.Append(fx.Hook{
					OnStart: func(context.Context) error {
						bus.Publish(SystemStarted)
						return nil
					},
					OnStop: func(context.Context) error {
						bus.Publish(SystemStopped)
						bus.WaitAsync()
						if input.Logger != nil {
							input.Logger.Infof("事件总线已停止: published=%d", bus.Published())
						}
						return nil
					},
				})
				return ModuleOutput{EventBus: bus}
			},
		),
	)
}
