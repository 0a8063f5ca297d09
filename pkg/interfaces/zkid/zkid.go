// Package zkid 定义吊销感知验证核心的组件接口
//
// 🎯 **设计目的**：
// 编排器在构造时接收全部协作者（无全局状态），各组件只通过以下接口交互，
// 便于以内存实现替换 Redis / badger / 证明后端进行测试。
package zkid

import (
	"context"
	"time"

	"github.com/weisyn/zkid/pkg/types"
)

// Accumulator 动态 Merkle 吊销累加器
//
// 🔒 单实例单写者，读操作可并发。
type Accumulator interface {
	// Add 插入承诺；已存在时无操作，树满时返回容量错误
	Add(commitment string) error

	// Remove 移除承诺；不存在时无操作
	Remove(commitment string) error

	// Contains 承诺是否在树中（非法输入视为不存在）
	Contains(commitment string) bool

	// GetWitness 返回成员见证，不存在时返回 nil
	GetWitness(commitment string) (*types.Witness, error)

	// GetRoot 当前根
	GetRoot() string

	// GetRootInfo 当前根、版本与更新时间
	GetRootInfo() types.RootInfo

	// Size 当前成员数
	Size() int

	// Depth 树深度
	Depth() int
}

// MembershipChecker 编排器使用的成员资格视图
type MembershipChecker interface {
	Contains(commitment string) bool
	GetRoot() string

	// IsKnownRoot 是否为当前根或最近的历史根
	IsKnownRoot(root string) bool
}

// SnapshotAccumulator 支持快照与恢复的累加器
type SnapshotAccumulator interface {
	Accumulator
	MembershipChecker

	// Snapshot 导出叶子集合
	Snapshot() (types.AccumulatorSnapshot, error)

	// Restore 以快照替换全部状态，恢复后的根必须与快照一致
	Restore(snapshot types.AccumulatorSnapshot) error
}

// ChallengeStore 服务端挑战存储
type ChallengeStore interface {
	// Issue 记录挑战及其请求时间戳，ttl 到期自动失效
	Issue(ctx context.Context, nonce string, requestTimestampMs int64, ttl time.Duration) error

	// Consume 原子取出挑战；不存在或已消费时 ok=false
	Consume(ctx context.Context, nonce string) (requestTimestampMs int64, ok bool, err error)
}

// NonceStore 已使用 nonce 记录
type NonceStore interface {
	Has(ctx context.Context, nonce string) (bool, error)
	Add(ctx context.Context, nonce string, ttl time.Duration) error

	// CheckAndAdd 原子地检查并标记，首次标记返回 true
	CheckAndAdd(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

// RateLimiter 按标识限流
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (types.RateLimitDecision, error)
}

// RevocationStore 非累加器声明类型使用的吊销黑名单
type RevocationStore interface {
	Revoke(ctx context.Context, commitment string) error
	Reinstate(ctx context.Context, commitment string) error
	IsRevoked(ctx context.Context, commitment string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// SyncHandler 远端更新回调
type SyncHandler func(event types.SyncEvent)

// SyncChannel 累加器变更通知通道（至多一次，无重试）
type SyncChannel interface {
	Publish(ctx context.Context, event types.SyncEvent) error
	OnUpdate(handler SyncHandler)
	Start(ctx context.Context) error
	Close() error
}

// IssuerRegistry 发行方信任注册表
type IssuerRegistry interface {
	// GetIssuer 查询发行方，不存在时返回 nil
	GetIssuer(ctx context.Context, name string) (*types.IssuerRecord, error)
}

// ProvingSystem 证明系统
type ProvingSystem interface {
	// Prove 为声明类型生成证明与公开信号
	Prove(ctx context.Context, claimType types.ClaimType, signed bool, inputs types.CircuitInputs) (*types.Groth16Proof, []string, error)

	// Verify 校验证明；证明无效返回 false，后端故障返回错误
	Verify(ctx context.Context, claimType types.ClaimType, signed bool, proof types.Groth16Proof, publicSignals []string) (bool, error)
}

// TelemetryObserver 验证遥测观察者
type TelemetryObserver interface {
	Observe(event types.VerificationEvent)
}
