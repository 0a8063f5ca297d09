package config

import (
	"fmt"
	"strings"

	accumulatorconfig "github.com/weisyn/zkid/internal/config/accumulator"
	kvstoreconfig "github.com/weisyn/zkid/internal/config/kvstore"
	syncerconfig "github.com/weisyn/zkid/internal/config/syncer"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	"github.com/weisyn/zkid/pkg/types"
)

// 累加器深度上下限
const (
	minAccumulatorDepth = 1
	maxAccumulatorDepth = 20
)

var consumeStrategies = []string{"", "auto", "native-atomic", "scripted-atomic", "non-atomic"}

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "配置验证失败，发现以下问题：\n"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap 使 errors.Is(err, types.ErrConfig) 成立
func (e *ValidationErrors) Unwrap() error {
	return types.ErrConfig
}

// Validate 校验合并默认值之后的完整配置
//
// 📋 **校验项**：
//   - kvstore.backend ∈ {redis, memory}
//   - accumulator.depth ∈ [1,20]，backend ∈ {memory, badger}
//   - replay.consume_strategy 为已知策略，challenge_ttl > 0
//   - rate_limit 启用时 limit 与 window 为正
//   - sync 启用时 transport ∈ {redis, local}，redis 传输要求 redis 后端
//   - verifier 时间窗口为正，声明类型白名单只含已知类型
//   - api 启用时 listen_addr 非空
func Validate(p config.Provider) error {
	var errs []error
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	kv := p.GetKVStore()
	if kv.Backend != kvstoreconfig.BackendRedis && kv.Backend != kvstoreconfig.BackendMemory {
		add("kvstore.backend", "未知后端 %q", kv.Backend)
	}

	acc := p.GetAccumulator()
	if acc.Depth < minAccumulatorDepth || acc.Depth > maxAccumulatorDepth {
		add("accumulator.depth", "深度必须在 [%d,%d] 之间，当前 %d", minAccumulatorDepth, maxAccumulatorDepth, acc.Depth)
	}
	if acc.Backend != accumulatorconfig.BackendMemory && acc.Backend != accumulatorconfig.BackendBadger {
		add("accumulator.backend", "未知后端 %q", acc.Backend)
	}

	replay := p.GetReplay()
	if replay.ChallengeTTL <= 0 {
		add("replay.challenge_ttl", "必须为正")
	}
	if !contains(consumeStrategies, strings.ToLower(strings.TrimSpace(replay.ConsumeStrategy))) {
		add("replay.consume_strategy", "未知策略 %q，可选 %s", replay.ConsumeStrategy, strings.Join(consumeStrategies[1:], "|"))
	}

	if rl := p.GetRateLimit(); rl.Enabled && (rl.Limit <= 0 || rl.Window <= 0) {
		add("rate_limit", "启用时 limit 与 window 必须为正")
	}

	if s := p.GetSync(); s.Enabled {
		switch s.Transport {
		case syncerconfig.TransportRedis:
			if kv.Backend != kvstoreconfig.BackendRedis {
				add("sync.transport", "redis 传输要求 kvstore.backend=redis")
			}
		case syncerconfig.TransportLocal:
		default:
			add("sync.transport", "未知传输 %q", s.Transport)
		}
	}

	v := p.GetVerifier()
	if v.StaleWindow <= 0 || v.FutureSkew < 0 {
		add("verifier.stale_window", "时间窗口必须为正")
	}
	for _, ct := range v.AllowedClaimTypes {
		if !ct.Known() {
			add("verifier.allowed_claim_types", "未知声明类型 %q", ct)
		}
	}

	if api := p.GetAPI(); api.Enabled && api.ListenAddr == "" {
		add("api.listen_addr", "启用 HTTP 服务时不能为空")
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
