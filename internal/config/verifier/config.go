// Package verifier 提供验证编排器配置
package verifier

import (
	"time"

	configtypes "github.com/weisyn/zkid/pkg/types"
)

// VerifierOptions 验证编排器配置选项
type VerifierOptions struct {
	StaleWindow       time.Duration           `json:"stale_window"`        // 请求时间戳最大过期窗口
	FutureSkew        time.Duration           `json:"future_skew"`         // 允许的未来偏移
	VerboseErrors     bool                    `json:"verbose_errors"`      // 是否对外暴露具体失败原因
	AllowedClaimTypes []configtypes.ClaimType `json:"allowed_claim_types"` // 声明类型白名单
	ArtifactsDir      string                  `json:"artifacts_dir"`       // verification_key 目录
	MaxNonceLength    int                     `json:"max_nonce_length"`
	ProtocolVersion   string                  `json:"protocol_version"`  // 服务端协议版本
	RequireChallenge  bool                    `json:"require_challenge"` // 只接受服务端签发的挑战
}

// Config 验证编排器配置实现
type Config struct {
	options *VerifierOptions
}

// New 创建验证编排器配置
func New(userConfig *configtypes.UserVerifierConfig) *Config {
	options := &VerifierOptions{
		StaleWindow:       defaultStaleWindow,
		FutureSkew:        defaultFutureSkew,
		VerboseErrors:     defaultVerboseErrors,
		AllowedClaimTypes: configtypes.KnownClaimTypes(),
		ArtifactsDir:      defaultArtifactsDir,
		MaxNonceLength:    defaultMaxNonceLength,
		ProtocolVersion:   DefaultProtocolVersion,
		RequireChallenge:  defaultRequireChallenge,
	}
	if userConfig != nil {
		if userConfig.StaleWindow != nil && *userConfig.StaleWindow > 0 {
			options.StaleWindow = time.Duration(*userConfig.StaleWindow) * time.Millisecond
		}
		if userConfig.FutureSkew != nil && *userConfig.FutureSkew >= 0 {
			options.FutureSkew = time.Duration(*userConfig.FutureSkew) * time.Millisecond
		}
		if userConfig.VerboseErrors != nil {
			options.VerboseErrors = *userConfig.VerboseErrors
		}
		if len(userConfig.AllowedClaimTypes) > 0 {
			allowed := make([]configtypes.ClaimType, 0, len(userConfig.AllowedClaimTypes))
			for _, ct := range userConfig.AllowedClaimTypes {
				// 未知类型直接忽略，白名单只能收窄
				if c := configtypes.ClaimType(ct); c.Known() {
					allowed = append(allowed, c)
				}
			}
			options.AllowedClaimTypes = allowed
		}
		if userConfig.ArtifactsDir != nil {
			options.ArtifactsDir = *userConfig.ArtifactsDir
		}
		if userConfig.RequireChallenge != nil {
			options.RequireChallenge = *userConfig.RequireChallenge
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *VerifierOptions {
	return c.options
}
