// Package clock provides clock interfaces.
package clock

import "time"

// Clock 时间源
//
// 挑战过期、请求时间戳新鲜度、限流窗口与根更新时间都从这里取时间，
// 测试中替换为 timeutil.ManualClock。
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration

	// UnixMilli 当前 Unix 毫秒时间戳
	UnixMilli() int64
}
