package replay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	kvInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/kvstore"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
)

// ConsumeStrategy 挑战消费策略，构造时确定，之后不再按调用探测
type ConsumeStrategy string

const (
	// StrategyAuto 构造时探测服务端版本：≥ 6.2 使用 GETDEL，否则使用脚本
	StrategyAuto ConsumeStrategy = "auto"
	// StrategyNativeAtomic GETDEL
	StrategyNativeAtomic ConsumeStrategy = "native-atomic"
	// StrategyScriptedAtomic 服务端脚本 GET + DEL
	StrategyScriptedAtomic ConsumeStrategy = "scripted-atomic"
	// StrategyNonAtomic GET 后 DEL
	//
	// ⚠️ 并发消费同一 nonce 时可能双方都读到值，仅用于不支持脚本的后端
	StrategyNonAtomic ConsumeStrategy = "non-atomic"
)

// ParseStrategy 解析配置中的策略名
func ParseStrategy(s string) (ConsumeStrategy, error) {
	switch ConsumeStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyNativeAtomic:
		return StrategyNativeAtomic, nil
	case StrategyScriptedAtomic:
		return StrategyScriptedAtomic, nil
	case StrategyNonAtomic:
		return StrategyNonAtomic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// ResolveStrategy 将 StrategyAuto 解析为具体策略
//
// 版本探测失败时退回脚本策略，脚本在全部受支持的 Redis 版本上可用。
func ResolveStrategy(ctx context.Context, client kvInterface.Client, requested ConsumeStrategy, logger logInterface.Logger) ConsumeStrategy {
	if requested != StrategyAuto {
		return requested
	}
	version, err := client.ServerVersion(ctx)
	if err != nil {
		if logger != nil {
			logger.Warnf("探测服务端版本失败，使用脚本化消费: %v", err)
		}
		return StrategyScriptedAtomic
	}
	if versionAtLeast(version, 6, 2) {
		return StrategyNativeAtomic
	}
	return StrategyScriptedAtomic
}

// versionAtLeast 比较 "major.minor.patch" 形式的版本
func versionAtLeast(version string, major, minor int) bool {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return false
	}
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return maj > major || (maj == major && min >= minor)
}
