package replay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	infraClock "github.com/weisyn/zkid/pkg/interfaces/infrastructure/clock"
	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

const (
	// MaxNonceLength nonce 最大长度
	MaxNonceLength = 256

	challengeKeyPrefix = "challenge:"
	nonceKeyPrefix     = "nonce:"

	// challengeNonceBytes 服务端签发 nonce 的随机字节数
	challengeNonceBytes = 32
)

// ChallengeStore 基于共享键值存储的挑战存储
//
// 🎯 **职责**：签发与一次性消费挑战
//
// 📋 **实现说明**：
//   - 键：challenge:{nonce}，值：请求时间戳毫秒，过期时间为 ttl
//   - 消费策略在构造时确定（见 ConsumeStrategy）
//   - 参数校验在任何存储访问之前完成
//
// 🔒 **安全性**：在原子策略下，并发消费同一 nonce 至多一个调用返回 ok=true
type ChallengeStore struct {
	client         kvInterface.Client
	strategy       ConsumeStrategy
	maxNonceLength int
	clock          infraClock.Clock
	logger         logInterface.Logger
}

// 确保实现接口
var _ zkid.ChallengeStore = (*ChallengeStore)(nil)

// ChallengeOption 挑战存储选项
type ChallengeOption func(*ChallengeStore)

// WithStrategy 指定消费策略
func WithStrategy(s ConsumeStrategy) ChallengeOption {
	return func(c *ChallengeStore) { c.strategy = s }
}

// WithMaxNonceLength 指定 nonce 最大长度
func WithMaxNonceLength(n int) ChallengeOption {
	return func(c *ChallengeStore) {
		if n > 0 {
			c.maxNonceLength = n
		}
	}
}

// WithClock 注入时钟
func WithClock(clk infraClock.Clock) ChallengeOption {
	return func(c *ChallengeStore) { c.clock = clk }
}

// WithLogger 注入日志
func WithLogger(l logInterface.Logger) ChallengeOption {
	return func(c *ChallengeStore) { c.logger = l }
}

// NewChallengeStore 创建挑战存储；StrategyAuto 在此处一次性解析
func NewChallengeStore(ctx context.Context, client kvInterface.Client, opts ...ChallengeOption) *ChallengeStore {
	s := &ChallengeStore{
		client:         client,
		strategy:       StrategyAuto,
		maxNonceLength: MaxNonceLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = timeutil.OrSystem(s.clock)
	s.logger = log.OrNop(s.logger)
	s.strategy = ResolveStrategy(ctx, client, s.strategy, s.logger)
	if s.strategy == StrategyNonAtomic {
		s.logger.Warn("挑战消费使用非原子策略，并发重放无法完全排除")
	}
	s.logger.Infof("挑战存储已初始化: strategy=%s", s.strategy)
	return s
}

// Strategy 返回生效的消费策略
func (s *ChallengeStore) Strategy() ConsumeStrategy {
	return s.strategy
}

// Issue 记录挑战
func (s *ChallengeStore) Issue(ctx context.Context, nonce string, requestTimestampMs int64, ttl time.Duration) error {
	if err := validateNonce(nonce, s.maxNonceLength); err != nil {
		return err
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	ok, err := s.client.SetNX(ctx, challengeKeyPrefix+nonce, strconv.FormatInt(requestTimestampMs, 10), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateChallenge
	}
	return nil
}

// IssueChallenge 生成随机 nonce 并以当前时间签发
func (s *ChallengeStore) IssueChallenge(ctx context.Context, ttl time.Duration) (types.ChallengeRecord, error) {
	if ttl <= 0 {
		return types.ChallengeRecord{}, ErrInvalidTTL
	}
	buf := make([]byte, challengeNonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return types.ChallengeRecord{}, fmt.Errorf("generate nonce: %w", err)
	}
	rec := types.ChallengeRecord{
		Nonce:      hex.EncodeToString(buf),
		IssuedAtMs: s.clock.UnixMilli(),
		TTLMs:      ttl.Milliseconds(),
	}
	if err := s.Issue(ctx, rec.Nonce, rec.IssuedAtMs, ttl); err != nil {
		return types.ChallengeRecord{}, err
	}
	return rec, nil
}

// Consume 一次性取出挑战
func (s *ChallengeStore) Consume(ctx context.Context, nonce string) (int64, bool, error) {
	if err := validateNonce(nonce, s.maxNonceLength); err != nil {
		return 0, false, err
	}
	key := challengeKeyPrefix + nonce

	var (
		raw string
		ok  bool
		err error
	)
	switch s.strategy {
	case StrategyNativeAtomic:
		raw, ok, err = s.client.GetDel(ctx, key)
	case StrategyScriptedAtomic:
		raw, ok, err = s.client.EvalGetDel(ctx, key)
	default:
		raw, ok, err = s.client.Get(ctx, key)
		if err == nil && ok {
			var n int64
			n, err = s.client.Del(ctx, key)
			// 另一个调用者已先删除
			if err == nil && n == 0 {
				ok = false
			}
		}
	}
	if err != nil || !ok {
		return 0, false, err
	}

	ts, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil {
		return 0, false, fmt.Errorf("%w: nonce=%s: %v", ErrCorruptChallenge, nonce, perr)
	}
	return ts, true, nil
}

func validateNonce(nonce string, maxLen int) error {
	if nonce == "" {
		return WrapInvalidNonceError("empty")
	}
	if len(nonce) > maxLen {
		return WrapInvalidNonceError(fmt.Sprintf("length %d exceeds %d", len(nonce), maxLen))
	}
	return nil
}
