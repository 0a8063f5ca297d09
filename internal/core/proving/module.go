package proving

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// ModuleParams 证明系统模块依赖
type ModuleParams struct {
	fx.In

	Provider config.Provider
	Logger   logInterface.Logger `optional:"true"`
}

// Module 返回证明系统模块
//
//   - verifier.artifacts_dir 已配置：加载其中的 <circuit>.vkey.json，只做验证
//   - 未配置：进程内 gnark 证明系统，首次使用时执行可信设置，密钥不跨进程共享
func Module() fx.Option {
	return fx.Module("proving",
		fx.Provide(ProvideProvingSystem),
	)
}

// ProvideProvingSystem 按配置创建证明系统
func ProvideProvingSystem(params ModuleParams) (zkid.ProvingSystem, error) {
	logger := log.OrNop(log.NewModuleLogger(params.Logger, "proving"))
	dir := params.Provider.GetVerifier().ArtifactsDir
	if dir == "" {
		logger.Warn("未配置 artifacts_dir，使用进程内可信设置；其它实例生成的证明将无法验证")
		return NewGnarkProvingSystem(params.Provider.GetAccumulator().Depth, logger)
	}

	ks, err := LoadKeySet(dir)
	if err != nil {
		return nil, err
	}
	if len(ks.Circuits()) == 0 {
		return nil, fmt.Errorf("%w: no verification keys found in %s", types.ErrConfig, dir)
	}
	logger.Infof("验证密钥已加载: dir=%s circuits=%v", dir, ks.Circuits())
	return ks, nil
}

// SetupAll 为全部已知电路执行可信设置并写出产物，返回写出的电路数
func SetupAll(depth int, dir string, logger logInterface.Logger) (int, error) {
	ps, err := NewGnarkProvingSystem(depth, logger)
	if err != nil {
		return 0, err
	}
	for _, ref := range KnownCircuits() {
		if err := ps.Setup(ref); err != nil {
			return 0, err
		}
	}
	return ps.SaveArtifacts(dir)
}
