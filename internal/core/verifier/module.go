package verifier

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	"github.com/weisyn/zkid/internal/core/issuer"
	"github.com/weisyn/zkid/internal/core/ratelimit"
	"github.com/weisyn/zkid/internal/core/replay"
	"github.com/weisyn/zkid/internal/core/revocation"
	"github.com/weisyn/zkid/pkg/interfaces/config"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
)

// ModuleParams 验证模块依赖
//
// 具体类型的可选依赖为 nil 时不注入，避免接口中出现带类型的 nil。
type ModuleParams struct {
	fx.In

	Provider      config.Provider
	ProvingSystem zkid.ProvingSystem
	Membership    zkid.MembershipChecker          `optional:"true"`
	Revocations   *revocation.Store               `optional:"true"`
	Challenges    *replay.ChallengeStore          `optional:"true"`
	Nonces        *replay.NonceStore              `optional:"true"`
	RateLimiter   *ratelimit.SlidingWindowLimiter `optional:"true"`
	Issuers       *issuer.KVRegistry              `optional:"true"`
	Observers     []zkid.TelemetryObserver        `group:"telemetry_observers"`
	Logger        logInterface.Logger             `optional:"true"`
}

// Module 返回验证编排模块
func Module() fx.Option {
	return fx.Module("verifier",
		fx.Provide(ProvideOrchestrator),
	)
}

// ProvideOrchestrator 组装编排器
//
// verifier.require_challenge 为 true 时使用挑战存储，否则使用客户端 nonce 存储。
func ProvideOrchestrator(params ModuleParams) (*Orchestrator, error) {
	opts := params.Provider.GetVerifier()
	deps := Dependencies{
		ProvingSystem: params.ProvingSystem,
		Membership:    params.Membership,
		Observers:     params.Observers,
	}
	if params.Revocations != nil {
		deps.Revocations = params.Revocations
	}
	if opts.RequireChallenge && params.Challenges != nil {
		deps.Challenges = params.Challenges
	} else if params.Nonces != nil {
		deps.Nonces = params.Nonces
	}
	if params.RateLimiter != nil {
		deps.RateLimiter = params.RateLimiter
	}
	if params.Issuers != nil {
		deps.Issuers = params.Issuers
	}
	return New(deps, WithOptions(opts), WithLogger(log.NewModuleLogger(params.Logger, "verifier")))
}
