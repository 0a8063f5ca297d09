// Package ratelimit implements a sliding-window request limiter over the shared key-value store.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	infraClock "github.com/weisyn/zkid/pkg/interfaces/infrastructure/clock"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

const keyPrefix = "ratelimit:"

var (
	// ErrInvalidIdentifier 客户端标识为空
	ErrInvalidIdentifier = fmt.Errorf("%w: empty client identifier", types.ErrValidation)

	// ErrInvalidLimit 限额或窗口非正
	ErrInvalidLimit = fmt.Errorf("%w: limit and window must be positive", types.ErrConfig)
)

// SlidingWindowLimiter 滑动窗口限流器
//
// 每个客户端一个有序集合：成员为 "<nowMs>-<uuid>"，分值为 nowMs。
// 每次请求先剔除窗口外成员再写入本次请求，超限时撤回本次写入，
// 因此被拒绝的请求不占用额度。
type SlidingWindowLimiter struct {
	client kvInterface.Client
	limit  int64
	window time.Duration
	clock  infraClock.Clock
	logger logInterface.Logger
}

// 确保实现接口
var _ zkid.RateLimiter = (*SlidingWindowLimiter)(nil)

// Option 限流器选项
type Option func(*SlidingWindowLimiter)

// WithClock 注入时钟
func WithClock(clk infraClock.Clock) Option {
	return func(l *SlidingWindowLimiter) { l.clock = clk }
}

// WithLogger 注入日志
func WithLogger(logger logInterface.Logger) Option {
	return func(l *SlidingWindowLimiter) { l.logger = logger }
}

// New 创建限流器
func New(client kvInterface.Client, limit int64, window time.Duration, opts ...Option) (*SlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("%w: limit=%d window=%s", ErrInvalidLimit, limit, window)
	}
	l := &SlidingWindowLimiter{client: client, limit: limit, window: window}
	for _, opt := range opts {
		opt(l)
	}
	l.clock = timeutil.OrSystem(l.clock)
	l.logger = log.OrNop(l.logger)
	return l, nil
}

// Allow 判断客户端本次请求是否放行
func (l *SlidingWindowLimiter) Allow(ctx context.Context, identifier string) (types.RateLimitDecision, error) {
	if identifier == "" {
		return types.RateLimitDecision{}, ErrInvalidIdentifier
	}
	key := keyPrefix + identifier
	nowMs := l.clock.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	count, err := l.client.SlidingWindowAdd(ctx, key, member, nowMs, l.window)
	if err != nil {
		return types.RateLimitDecision{}, err
	}
	if count <= l.limit {
		return types.RateLimitDecision{Allowed: true, Count: count, Limit: l.limit}, nil
	}

	if err := l.client.ZRem(ctx, key, member); err != nil {
		l.logger.Warnf("撤回被拒请求失败: id=%s err=%v", identifier, err)
	}
	decision := types.RateLimitDecision{Allowed: false, Count: count - 1, Limit: l.limit}
	if oldest, ok, err := l.client.ZOldest(ctx, key); err == nil && ok {
		retry := time.Duration(oldest+l.window.Milliseconds()-nowMs) * time.Millisecond
		if retry > 0 {
			decision.RetryAfter = retry
		}
	}
	l.logger.Debugf("请求被限流: id=%s count=%d limit=%d", identifier, decision.Count, l.limit)
	return decision, nil
}

// Limit 窗口内允许的请求数
func (l *SlidingWindowLimiter) Limit() int64 { return l.limit }

// Window 窗口长度
func (l *SlidingWindowLimiter) Window() time.Duration { return l.window }
