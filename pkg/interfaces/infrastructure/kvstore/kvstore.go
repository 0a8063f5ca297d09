// Package kvstore 定义共享键值存储 / 发布订阅客户端接口
//
// 📋 **职责**：
//   - 挑战与 nonce 存储（SET NX / GETDEL / 脚本化 GET+DEL）
//   - 吊销黑名单与累加器快照（集合、字符串、比较并交换）
//   - 滑动窗口限流（有序集合 + MULTI/EXEC 事务管道）
//   - 累加器变更通知（发布订阅）
//
// 🔒 **并发安全**：所有实现必须可被多个 goroutine 并发调用。
// 键前缀由实现统一追加，调用方只使用逻辑键名；频道名不加前缀。
package kvstore

import (
	"context"
	"time"
)

// Client 键值存储客户端
type Client interface {
	// Ping 测试连接
	Ping(ctx context.Context) error

	// Close 关闭连接，同时关闭全部订阅
	Close() error

	// ServerVersion 返回服务端版本号，如 "7.2.4"
	ServerVersion(ctx context.Context) (string, error)

	// Get 读取字符串值，键不存在时 ok=false
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set 写入字符串值，ttl<=0 表示不过期
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX 键不存在时写入，返回是否写入成功
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// CompareAndSwap 当前值等于 old 时原子写入 value，返回是否写入；
	// old 为空串表示要求键不存在
	CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error)

	// Del 删除键，返回实际删除数量
	Del(ctx context.Context, keys ...string) (int64, error)

	// Exists 键是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// GetDel 原子读取并删除（GETDEL，需要 Redis ≥ 6.2）
	GetDel(ctx context.Context, key string) (value string, ok bool, err error)

	// EvalGetDel 通过服务端脚本原子执行 GET + DEL
	EvalGetDel(ctx context.Context, key string) (value string, ok bool, err error)

	// SAdd 向集合添加成员，返回新增数量
	SAdd(ctx context.Context, key string, members ...string) (int64, error)

	// SRem 从集合移除成员，返回移除数量
	SRem(ctx context.Context, key string, members ...string) (int64, error)

	// SIsMember 成员是否在集合中
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// SCard 集合大小
	SCard(ctx context.Context, key string) (int64, error)

	// SMembers 集合全部成员
	SMembers(ctx context.Context, key string) ([]string, error)

	// SlidingWindowAdd 在单个事务内执行：移除分值 ≤ nowMs-window 的成员、
	// 以 nowMs 为分值加入 member、统计基数、设置键过期为 window，返回加入后的基数
	SlidingWindowAdd(ctx context.Context, key, member string, nowMs int64, window time.Duration) (int64, error)

	// ZRem 从有序集合移除成员
	ZRem(ctx context.Context, key, member string) error

	// ZOldest 返回有序集合中最小分值，集合为空时 ok=false
	ZOldest(ctx context.Context, key string) (score int64, ok bool, err error)

	// Publish 向频道发布消息
	Publish(ctx context.Context, channel, payload string) error

	// Subscribe 订阅频道，返回时订阅已在服务端确认
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription 频道订阅
type Subscription interface {
	// Messages 消息流，订阅关闭后通道关闭
	Messages() <-chan string

	// Close 取消订阅
	Close() error
}
