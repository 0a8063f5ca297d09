// Package replay 提供防重放配置
package replay

import (
	"time"

	configtypes "github.com/weisyn/zkid/pkg/types"
)

// ReplayOptions 防重放配置选项
type ReplayOptions struct {
	ChallengeTTL    time.Duration `json:"challenge_ttl"`    // 挑战有效期
	ConsumeStrategy string        `json:"consume_strategy"` // auto | native-atomic | scripted-atomic | non-atomic
	MaxNonceLength  int           `json:"max_nonce_length"` // nonce 最大长度
}

// Config 防重放配置实现
type Config struct {
	options *ReplayOptions
}

// New 创建防重放配置
func New(userConfig *configtypes.UserReplayConfig) *Config {
	options := &ReplayOptions{
		ChallengeTTL:    defaultChallengeTTL,
		ConsumeStrategy: defaultConsumeStrategy,
		MaxNonceLength:  defaultMaxNonceLength,
	}
	if userConfig != nil {
		if userConfig.ChallengeTTL != nil && *userConfig.ChallengeTTL > 0 {
			options.ChallengeTTL = time.Duration(*userConfig.ChallengeTTL) * time.Millisecond
		}
		if userConfig.ConsumeStrategy != nil && *userConfig.ConsumeStrategy != "" {
			options.ConsumeStrategy = *userConfig.ConsumeStrategy
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *ReplayOptions {
	return c.options
}
