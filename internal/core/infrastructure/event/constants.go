// 事件主题常量定义

package event

import eventInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/event"

// 基础设施层只定义系统级主题，业务主题由各业务模块自行定义
const (
	SystemStarted eventInterface.EventType = "system:started"
	SystemStopped eventInterface.EventType = "system:stopped"
)
