// Package timeutil provides time utility functions.
package timeutil

import (
	"sync"
	"time"

	infraClock "github.com/weisyn/zkid/pkg/interfaces/infrastructure/clock"
)

// SystemClock 系统时钟实现
type SystemClock struct{}

var _ infraClock.Clock = SystemClock{}

// Now 返回当前系统时间
func (SystemClock) Now() time.Time { return time.Now() }

// Since 返回从 t 到现在的持续时间
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// UnixMilli 返回当前Unix毫秒时间戳
func (SystemClock) UnixMilli() int64 { return time.Now().UnixMilli() }

// OrSystem 未注入时钟时回退系统时钟
func OrSystem(c infraClock.Clock) infraClock.Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}

// ManualClock 手动推进的时钟，用于测试 TTL / 滑动窗口等时间相关逻辑
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

var _ infraClock.Clock = (*ManualClock)(nil)

// NewManualClock 创建从 start 开始的手动时钟
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now 返回当前手动时间
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Since 返回从 t 到当前手动时间的持续时间
func (c *ManualClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// UnixMilli 返回当前手动时间的毫秒时间戳
func (c *ManualClock) UnixMilli() int64 {
	return c.Now().UnixMilli()
}

// Advance 推进时钟
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set 设置当前时间
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
